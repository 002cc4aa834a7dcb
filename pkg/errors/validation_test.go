package errors

import (
	"strings"
	"testing"
)

func TestValidateSelector(t *testing.T) {
	tests := []struct {
		name    string
		sel     string
		wantErr bool
	}{
		{name: "bare key", sel: "building", wantErr: false},
		{name: "key value", sel: "golf.bunker", wantErr: false},
		{name: "another key value", sel: "natural.water", wantErr: false},
		{name: "empty", sel: "", wantErr: true},
		{name: "whitespace", sel: "golf bunker", wantErr: true},
		{name: "control character", sel: "golf\x00bunker", wantErr: true},
		{name: "two dots", sel: "a.b.c", wantErr: true},
		{name: "leading dot", sel: ".bunker", wantErr: true},
		{name: "trailing dot", sel: "golf.", wantErr: true},
		{name: "too long", sel: strings.Repeat("x", 129), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSelector(tt.sel)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSelector(%q) error = %v, wantErr %v", tt.sel, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidStyle) {
				t.Errorf("ValidateSelector(%q) code = %v, want %v", tt.sel, GetCode(err), ErrCodeInvalidStyle)
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		name    string
		color   string
		wantErr bool
	}{
		{name: "unset", color: "", wantErr: false},
		{name: "none", color: "none", wantErr: false},
		{name: "six digit", color: "#FCA328", wantErr: false},
		{name: "three digit", color: "#abc", wantErr: false},
		{name: "missing hash", color: "FCA328", wantErr: true},
		{name: "named color", color: "red", wantErr: true},
		{name: "wrong length", color: "#FCA3", wantErr: true},
		{name: "non hex digits", color: "#GGGGGG", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColor(tt.color)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.color, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLineCap(t *testing.T) {
	for _, valid := range []string{"", "butt", "square"} {
		if err := ValidateLineCap(valid); err != nil {
			t.Errorf("ValidateLineCap(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"round", "rounded", "flat", "BUTT"} {
		if err := ValidateLineCap(invalid); err == nil {
			t.Errorf("ValidateLineCap(%q) = nil, want error", invalid)
		}
	}
}
