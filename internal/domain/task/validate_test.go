package task

import (
	"errors"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func statusPtr(s Status) *Status { return &s }

func TestCreateInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateInput
		wantErr bool
	}{
		{
			name:  "valid minimal",
			input: CreateInput{Title: "Buy milk", Description: "2% milk"},
		},
		{
			name:  "valid with status",
			input: CreateInput{Title: "Buy milk", Description: "2% milk", Status: StatusCompleted},
		},
		{
			name:    "missing title",
			input:   CreateInput{Description: "2% milk"},
			wantErr: true,
		},
		{
			name:    "whitespace-only title",
			input:   CreateInput{Title: "   ", Description: "2% milk"},
			wantErr: true,
		},
		{
			name:    "missing description",
			input:   CreateInput{Title: "Buy milk"},
			wantErr: true,
		},
		{
			name:    "title too long",
			input:   CreateInput{Title: strings.Repeat("a", MaxTitleLen+1), Description: "ok"},
			wantErr: true,
		},
		{
			name:    "description too long",
			input:   CreateInput{Title: "ok", Description: strings.Repeat("a", MaxDescriptionLen+1)},
			wantErr: true,
		},
		{
			name:    "unknown status",
			input:   CreateInput{Title: "ok", Description: "ok", Status: Status("archived")},
			wantErr: true,
		},
		{
			name:  "title at bound",
			input: CreateInput{Title: strings.Repeat("a", MaxTitleLen), Description: "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateInputTrims(t *testing.T) {
	in := CreateInput{Title: "  Buy milk  ", Description: " 2% milk "}
	if err := in.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Title != "Buy milk" {
		t.Errorf("title not trimmed: %q", in.Title)
	}
	if in.Description != "2% milk" {
		t.Errorf("description not trimmed: %q", in.Description)
	}
}

func TestUpdateInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   UpdateInput
		wantErr bool
	}{
		{
			name:  "empty patch is valid",
			input: UpdateInput{},
		},
		{
			name:  "status only",
			input: UpdateInput{Status: statusPtr(StatusCompleted)},
		},
		{
			name:    "present but empty title",
			input:   UpdateInput{Title: strPtr("  ")},
			wantErr: true,
		},
		{
			name:    "title too long",
			input:   UpdateInput{Title: strPtr(strings.Repeat("a", MaxTitleLen+1))},
			wantErr: true,
		},
		{
			name:    "unknown status",
			input:   UpdateInput{Status: statusPtr(Status("paused"))},
			wantErr: true,
		},
		{
			name:  "all fields",
			input: UpdateInput{Title: strPtr("t"), Description: strPtr("d"), Status: statusPtr(StatusPending)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdateInputPatch(t *testing.T) {
	in := UpdateInput{Status: statusPtr(StatusCompleted)}
	p := in.Patch()
	if p.Title != nil || p.Description != nil {
		t.Error("absent fields must stay nil in the patch")
	}
	if p.Status == nil || *p.Status != StatusCompleted {
		t.Error("status not carried into the patch")
	}
	if p.IsEmpty() {
		t.Error("patch with status is not empty")
	}
	var empty UpdateInput
	if !empty.Patch().IsEmpty() {
		t.Error("empty input must produce an empty patch")
	}
}
