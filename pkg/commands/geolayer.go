package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/data"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// CreateGeoLayerFromGeometry creates a one-feature layer from a bounding
// box or WKT text.
type CreateGeoLayerFromGeometry struct {
	command.Base
}

func NewCreateGeoLayerFromGeometry() command.Command {
	return &CreateGeoLayerFromGeometry{Base: command.NewBase("CreateGeoLayerFromGeometry",
		command.ParameterMetadata{Name: "NewGeoLayerID", Type: command.String, Required: true, Description: "ID of the new layer."},
		command.ParameterMetadata{Name: "GeometryFormat", Type: command.String, Required: true,
			Choices: []string{"BoundingBox", "WKT"}, Description: "Format of GeometryData."},
		command.ParameterMetadata{Name: "GeometryData", Type: command.String, Required: true,
			Description: `"minx, miny, maxx, maxy" for BoundingBox, otherwise WKT text.`},
		command.ParameterMetadata{Name: "CRS", Type: command.String, Required: true, Description: "Coordinate reference system, e.g. EPSG:4326."},
		command.ParameterMetadata{Name: "Attributes", Type: command.Dict, Description: "Attributes of the feature."},
		ifExists("IfGeoLayerIDExists"),
	)}
}

func (c *CreateGeoLayerFromGeometry) ValidateParameters(params *command.Parameters) error {
	v := command.NewValidator(c, params).Standard()
	geom := v.Value("GeometryData")
	if strings.EqualFold(v.Value("GeometryFormat"), "BoundingBox") && geom != "" && !strings.Contains(geom, "${") {
		if _, err := data.BoundingBoxToWKT(geom); err != nil {
			v.Fail(fmt.Sprintf("GeometryData: %v.", err), `Specify the bounding box as "minx, miny, maxx, maxy".`)
		}
	}
	return v.Err()
}

// Discover publishes the layer ID with an empty layer so later commands
// validate against it.
func (c *CreateGeoLayerFromGeometry) Discover(context.Context) error {
	proc := c.Processor()
	if proc == nil {
		return nil
	}
	id := c.Expanded("NewGeoLayerID")
	if !proc.Layers().Has(id) {
		proc.Layers().Set(id, &data.GeoLayer{ID: id, CRS: c.Expanded("CRS")})
	}
	return nil
}

func (c *CreateGeoLayerFromGeometry) Execute(context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	pol, err := policy(&c.Base, "IfGeoLayerIDExists")
	if err != nil {
		return err
	}
	format := c.Expanded("GeometryFormat")
	geom := c.Expanded("GeometryData")
	if strings.EqualFold(format, "BoundingBox") {
		if geom, err = data.BoundingBoxToWKT(geom); err != nil {
			return err
		}
	}
	attrs := map[string]string{}
	if s := c.Expanded("Attributes"); s != "" {
		if attrs, err = command.DecodeDict(s); err != nil {
			return fmt.Errorf("attributes: %w", err)
		}
	}
	id := c.Expanded("NewGeoLayerID")
	layer := &data.GeoLayer{
		ID:             id,
		CRS:            c.Expanded("CRS"),
		GeometryFormat: "WKT",
		Features:       []data.Feature{{Geometry: geom, Attributes: attrs}},
	}
	proc.Layers().Insert(c.Status(), pol, id, layer)
	return nil
}

// CopyGeoLayer copies a layer under a new ID.
type CopyGeoLayer struct {
	command.Base
}

func NewCopyGeoLayer() command.Command {
	return &CopyGeoLayer{Base: command.NewBase("CopyGeoLayer",
		command.ParameterMetadata{Name: "GeoLayerID", Type: command.String, Required: true, Description: "Layer to copy."},
		command.ParameterMetadata{Name: "CopiedGeoLayerID", Type: command.String, Description: "ID of the copy; default GeoLayerID_copy."},
		command.ParameterMetadata{Name: "IncludeAttributes", Type: command.List, Description: "Attributes to keep; default all."},
		ifExists("IfGeoLayerIDExists"),
	)}
}

func (c *CopyGeoLayer) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(c, params).Standard().Err()
}

func (c *CopyGeoLayer) copyID() string {
	if id := c.Expanded("CopiedGeoLayerID"); id != "" {
		return id
	}
	return c.Expanded("GeoLayerID") + "_copy"
}

func (c *CopyGeoLayer) Execute(context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	pol, err := policy(&c.Base, "IfGeoLayerIDExists")
	if err != nil {
		return err
	}
	src := c.Expanded("GeoLayerID")
	layer, ok := proc.Layers().Get(src)
	if !ok {
		c.Status().Add(status.Run, status.Failure, fmt.Sprintf("GeoLayer %q does not exist.", src),
			"Create or read the layer before copying it.")
		return nil
	}
	attrs, err := command.DecodeList(c.Expanded("IncludeAttributes"))
	if err != nil {
		return err
	}
	id := c.copyID()
	proc.Layers().Insert(c.Status(), pol, id, layer.Copy(id, attrs))
	return nil
}

// FreeGeoLayers removes layers from the processor. "*" removes all of them.
type FreeGeoLayers struct {
	command.Base
}

func NewFreeGeoLayers() command.Command {
	return &FreeGeoLayers{Base: command.NewBase("FreeGeoLayers",
		command.ParameterMetadata{Name: "GeoLayerIDs", Type: command.List, Required: true, Description: `Layers to remove; "*" for all.`},
	)}
}

func (c *FreeGeoLayers) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(c, params).Standard().Err()
}

func (c *FreeGeoLayers) Execute(context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	raw := strings.TrimSpace(c.Expanded("GeoLayerIDs"))
	var ids []string
	if raw == "*" {
		ids = proc.Layers().IDs()
	} else if ids, err = command.DecodeList(raw); err != nil {
		return err
	}
	for _, id := range ids {
		if !proc.Layers().Remove(id) {
			c.Status().Add(status.Run, status.Warning, fmt.Sprintf("GeoLayer %q does not exist.", id), "")
		}
	}
	return nil
}
