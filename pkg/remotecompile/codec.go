package remotecompile

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stackb/repl-session/pkg/compile"
)

// compileRequest is the wire form of compile.Request.  The reference set
// travels as its digest and the parent as its unit ID.
type compileRequest struct {
	Source     string
	References string
	Parent     string
}

func encodeRequest(r *compileRequest) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"source":     structpb.NewStringValue(r.Source),
		"references": structpb.NewStringValue(r.References),
		"parent":     structpb.NewStringValue(r.Parent),
	}}
}

func decodeRequest(s *structpb.Struct) *compileRequest {
	return &compileRequest{
		Source:     s.GetFields()["source"].GetStringValue(),
		References: s.GetFields()["references"].GetStringValue(),
		Parent:     s.GetFields()["parent"].GetStringValue(),
	}
}

func encodeResponse(resp *compile.Response) *structpb.Struct {
	diagnostics := make([]*structpb.Value, 0, len(resp.Diagnostics))
	for _, d := range resp.Diagnostics {
		diagnostics = append(diagnostics, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"severity": structpb.NewNumberValue(float64(d.Severity)),
			"filename": structpb.NewStringValue(d.Filename),
			"line":     structpb.NewNumberValue(float64(d.Line)),
			"column":   structpb.NewNumberValue(float64(d.Column)),
			"message":  structpb.NewStringValue(d.Message),
		}}))
	}

	unit := structpb.NewNullValue()
	if u := resp.Unit; u != nil {
		declared := make([]*structpb.Value, 0, len(u.Declared))
		for _, name := range u.Declared {
			declared = append(declared, structpb.NewStringValue(name))
		}
		unit = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":       structpb.NewStringValue(u.ID),
			"ordinal":  structpb.NewNumberValue(float64(u.Ordinal)),
			"declared": structpb.NewListValue(&structpb.ListValue{Values: declared}),
			"entry_point": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
				"namespace": structpb.NewStringValue(u.EntryPoint.Namespace),
				"type":      structpb.NewStringValue(u.EntryPoint.Type),
				"method":    structpb.NewStringValue(u.EntryPoint.Method),
			}}),
		}})
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"diagnostics": structpb.NewListValue(&structpb.ListValue{Values: diagnostics}),
		"unit":        unit,
	}}
}

// decodeResponse rebuilds a response.  The unit is chained to parent, the
// client side unit the request was made with.
func decodeResponse(s *structpb.Struct, parent *compile.Unit, source string) (*compile.Response, error) {
	resp := &compile.Response{}
	for _, v := range s.GetFields()["diagnostics"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		resp.Diagnostics = append(resp.Diagnostics, &compile.Diagnostic{
			Severity: compile.Severity(f["severity"].GetNumberValue()),
			Filename: f["filename"].GetStringValue(),
			Line:     int(f["line"].GetNumberValue()),
			Column:   int(f["column"].GetNumberValue()),
			Message:  f["message"].GetStringValue(),
		})
	}

	u := s.GetFields()["unit"].GetStructValue()
	if u == nil {
		return resp, nil
	}
	f := u.GetFields()
	id := f["id"].GetStringValue()
	if id == "" {
		return nil, fmt.Errorf("compile response unit has no id")
	}
	ep := f["entry_point"].GetStructValue().GetFields()
	unit := &compile.Unit{
		ID:      id,
		Parent:  parent,
		Source:  source,
		Ordinal: int(f["ordinal"].GetNumberValue()),
		EntryPoint: compile.EntryPoint{
			Namespace: ep["namespace"].GetStringValue(),
			Type:      ep["type"].GetStringValue(),
			Method:    ep["method"].GetStringValue(),
		},
		Artifact: remoteUnit(id),
	}
	for _, name := range f["declared"].GetListValue().GetValues() {
		unit.Declared = append(unit.Declared, name.GetStringValue())
	}
	resp.Unit = unit
	return resp, nil
}

// remoteUnit is the Artifact of units compiled by a Client: the ID the
// backend knows the unit by.
type remoteUnit string
