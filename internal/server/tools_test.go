package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"measure_object",
		"analyze_top_view",
		"estimate_height",
		"segment_frame",
		"sample_color",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required parameter must be described.
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required parameter %q has no property", r)
				}
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tests := []struct {
		tool string
		want []string
	}{
		{"measure_object", []string{"top_path", "side_path"}},
		{"analyze_top_view", []string{"path"}},
		{"estimate_height", []string{"path"}},
		{"segment_frame", []string{"path", "mode"}},
		{"sample_color", []string{"path", "x", "y"}},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			tool, ok := toolMap[tt.tool]
			if !ok {
				t.Fatalf("tool %s not found", tt.tool)
			}
			required := tool.InputSchema["required"].([]string)
			if len(required) != len(tt.want) {
				t.Fatalf("required = %v, want %v", required, tt.want)
			}
			for i := range required {
				if required[i] != tt.want[i] {
					t.Errorf("required[%d] = %s, want %s", i, required[i], tt.want[i])
				}
			}
		})
	}
}

func TestToolDefinitions_SegmentModes(t *testing.T) {
	var tool Tool
	for _, tt := range GetToolDefinitions() {
		if tt.Name == "segment_frame" {
			tool = tt
			break
		}
	}
	if tool.Name == "" {
		t.Fatal("segment_frame tool not found")
	}

	props := tool.InputSchema["properties"].(map[string]interface{})
	mode := props["mode"].(map[string]interface{})
	enum, ok := mode["enum"].([]string)
	if !ok {
		t.Fatal("mode enum should be a string slice")
	}

	want := map[string]bool{"top": true, "side": true}
	for _, e := range enum {
		delete(want, e)
	}
	for missing := range want {
		t.Errorf("mode enum missing %q", missing)
	}
}
