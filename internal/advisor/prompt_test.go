package advisor

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"spendlog/internal/core"
)

func TestFormatSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		snapshot []core.CategoryAmount
		want     string
	}{
		{"empty", nil, "[]"},
		{"single", []core.CategoryAmount{{Category: "Food", Amount: 12.5}}, "[['Food', 12.5]]"},
		{
			name: "whole amounts keep a decimal",
			snapshot: []core.CategoryAmount{
				{Category: "Rent", Amount: 900},
				{Category: "Food", Amount: 3.25},
			},
			want: "[['Rent', 900.0], ['Food', 3.25]]",
		},
		{"negative", []core.CategoryAmount{{Category: "Refund", Amount: -20}}, "[['Refund', -20.0]]"},
		{"apostrophe", []core.CategoryAmount{{Category: "Kid's toys", Amount: 5}}, `[["Kid's toys", 5.0]]`},
		{"both quotes", []core.CategoryAmount{{Category: `Joe's "deli"`, Amount: 5}}, `[['Joe\'s "deli"', 5.0]]`},
		{"backslash and newline", []core.CategoryAmount{{Category: "a\\b\nc", Amount: 1}}, `[['a\\b\nc', 1.0]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSnapshot(tt.snapshot); got != tt.want {
				t.Errorf("FormatSnapshot() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBrief(t *testing.T) {
	brief := Brief([]core.CategoryAmount{{Category: "Food", Amount: 10}})

	for _, want := range []string{
		"You are an AI Financial Advisor.",
		"Current Expenses Data:\n[['Food', 10.0]]\n",
		"Provide actionable money-saving advice.",
		"Keep responses concise (under 2-3 sentences) unless asked for a detailed breakdown.",
	} {
		if !strings.Contains(brief, want) {
			t.Errorf("brief does not contain %q:\n%s", want, brief)
		}
	}
	if strings.Contains(brief, "{expenses}") {
		t.Error("placeholder was not replaced")
	}
}

func TestErrorReply(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("quota exceeded"), "I encountered an error: quota exceeded"},
		{
			"kinded error drops the operation",
			core.RemoteService("send chat message", errors.New("quota exceeded")),
			"I encountered an error: quota exceeded",
		},
		{
			"wrapped kinded error",
			fmt.Errorf("outer: %w", core.RemoteService("send chat message", core.ErrModelNotConfigured)),
			"I encountered an error: " + core.ErrModelNotConfigured.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorReply(tt.err); got != tt.want {
				t.Errorf("ErrorReply() = %q, want %q", got, tt.want)
			}
		})
	}
}
