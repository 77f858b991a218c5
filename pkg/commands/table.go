package commands

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/data"
)

var delimiterParam = command.ParameterMetadata{
	Name: "Delimiter", Type: command.String, Default: ",", Description: `Single-character field delimiter; \t for tab.`,
}

func delimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || n != len(s) {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	return r, nil
}

func checkDelimiter(v *command.Validator) {
	d := v.Value("Delimiter")
	if strings.Contains(d, "${") {
		return
	}
	if _, err := delimiter(d); err != nil {
		v.Fail(err.Error()+".", "Specify a single-character delimiter.")
	}
}

// ReadTableFromDelimitedFile reads a CSV-style file into a table.
type ReadTableFromDelimitedFile struct {
	command.Base
}

func NewReadTableFromDelimitedFile() command.Command {
	return &ReadTableFromDelimitedFile{Base: command.NewBase("ReadTableFromDelimitedFile",
		command.ParameterMetadata{Name: "InputFile", Type: command.String, Required: true, Description: "Delimited file to read."},
		command.ParameterMetadata{Name: "TableID", Type: command.String, Required: true, Description: "ID of the new table."},
		delimiterParam,
		command.ParameterMetadata{Name: "HeaderLines", Type: command.Int, Default: "1", Description: "Leading lines; the last one names the columns."},
		ifExists("IfTableIDExists"),
	)}
}

func (c *ReadTableFromDelimitedFile) ValidateParameters(params *command.Parameters) error {
	v := command.NewValidator(c, params).Standard()
	checkDelimiter(v)
	return v.Err()
}

func (c *ReadTableFromDelimitedFile) Execute(context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	pol, err := policy(&c.Base, "IfTableIDExists")
	if err != nil {
		return err
	}
	delim, err := delimiter(c.Expanded("Delimiter"))
	if err != nil {
		return err
	}
	headers, err := strconv.Atoi(c.Expanded("HeaderLines"))
	if err != nil || headers < 0 {
		return fmt.Errorf("HeaderLines %q is not a non-negative integer", c.Expanded("HeaderLines"))
	}

	path := c.ExpandedPath("InputFile")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delim
	r.Comment = '#'
	r.FieldsPerRecord = -1
	t := &data.Table{ID: c.Expanded("TableID"), Source: path}
	for line := 0; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		switch {
		case line < headers-1:
		case line == headers-1:
			t.Columns = rec
		default:
			t.Rows = append(t.Rows, rec)
		}
	}
	if t.Columns == nil {
		width := 0
		for _, row := range t.Rows {
			width = max(width, len(row))
		}
		for i := 0; i < width; i++ {
			t.Columns = append(t.Columns, fmt.Sprintf("Column%d", i+1))
		}
	}
	proc.Tables().Insert(c.Status(), pol, t.ID, t)
	return nil
}

// WriteTableToDelimitedFile writes a table with a header line.
type WriteTableToDelimitedFile struct {
	command.Base
}

func NewWriteTableToDelimitedFile() command.Command {
	return &WriteTableToDelimitedFile{Base: command.NewBase("WriteTableToDelimitedFile",
		command.ParameterMetadata{Name: "TableID", Type: command.String, Required: true, Description: "Table to write."},
		command.ParameterMetadata{Name: "OutputFile", Type: command.String, Required: true, Description: "File to write."},
		delimiterParam,
	)}
}

func (c *WriteTableToDelimitedFile) ValidateParameters(params *command.Parameters) error {
	v := command.NewValidator(c, params).Standard()
	checkDelimiter(v)
	return v.Err()
}

func (c *WriteTableToDelimitedFile) Execute(context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	id := c.Expanded("TableID")
	t, ok := proc.Tables().Get(id)
	if !ok {
		return fmt.Errorf("table %q does not exist", id)
	}
	delim, err := delimiter(c.Expanded("Delimiter"))
	if err != nil {
		return err
	}
	f, err := createFile(c.ExpandedPath("OutputFile"), false)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Comma = delim
	if err := w.Write(t.Columns); err == nil {
		err = w.WriteAll(t.Rows)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write table %s: %w", id, err)
	}
	return f.Close()
}
