package commands

import (
	"context"
	"fmt"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// Message prints a message and optionally sets the command status, which
// makes it useful for flagging conditions inside If blocks.
type Message struct {
	command.Base
}

func NewMessage() command.Command {
	return &Message{Base: command.NewBase("Message",
		command.ParameterMetadata{Name: "Message", Type: command.String, Required: true, Description: "Text to print; may reference ${Property}."},
		command.ParameterMetadata{Name: "CommandStatus", Type: command.String,
			Choices: []string{"Info", "Success", "Warning", "Failure"}, Description: "Status recorded with the message."},
	)}
}

func (c *Message) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(c, params).Standard().Err()
}

func (c *Message) Execute(context.Context) error {
	msg := c.Expanded("Message")
	if proc := c.Processor(); proc != nil {
		fmt.Fprintln(proc.Output(), msg)
		proc.Logger().Info("message", "text", msg)
	}
	if s := c.Expanded("CommandStatus"); s != "" {
		sev, err := status.ParseSeverity(s)
		if err != nil {
			return err
		}
		c.Status().Add(status.Run, sev, msg, "")
	}
	return nil
}
