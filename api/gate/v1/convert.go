package gatev1

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/envguard/internal/model"
)

// Response field names.
const (
	FieldDecision = "decision"
	FieldReason   = "reason"
	FieldDetail   = "detail"
	FieldMessage  = "message"
)

// RequestToStruct encodes a tool call in the hook payload shape.
func RequestToStruct(req model.ToolRequest) (*structpb.Struct, error) {
	input := req.Input
	if input == nil {
		input = map[string]any{}
	}
	s, err := structpb.NewStruct(map[string]any{
		"tool_name":  req.ToolName,
		"tool_input": input,
		"session_id": req.SessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return s, nil
}

// StructToRequest decodes a request with the same tolerance as the hook.
func StructToRequest(s *structpb.Struct) model.ToolRequest {
	if s == nil {
		return model.ToolRequest{}
	}
	return model.RequestFromMap(s.AsMap())
}

// DecisionToStruct encodes a decision and the message shown to the agent.
func DecisionToStruct(d model.Decision, message string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldDecision: structpb.NewStringValue(string(d.Outcome)),
		FieldReason:   structpb.NewStringValue(d.Reason),
		FieldDetail:   structpb.NewStringValue(d.Detail),
		FieldMessage:  structpb.NewStringValue(message),
	}}
}

// StructToDecision decodes a response. Unknown decisions are an error.
func StructToDecision(s *structpb.Struct) (model.Decision, string, error) {
	fields := s.GetFields()
	outcome, ok := model.ParseOutcome(fields[FieldDecision].GetStringValue())
	if !ok {
		return model.Decision{}, "", fmt.Errorf("unknown decision %q", fields[FieldDecision].GetStringValue())
	}
	d := model.Decision{
		Outcome: outcome,
		Reason:  fields[FieldReason].GetStringValue(),
		Detail:  fields[FieldDetail].GetStringValue(),
	}
	return d, fields[FieldMessage].GetStringValue(), nil
}
