package validation

import (
	"testing"
)

func TestValidateArgument(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		wantErr bool
	}{
		{name: "plain flag", arg: "--noEmit", wantErr: false},
		{name: "absolute path", arg: "/work/app/tsconfig.json", wantErr: false},
		{name: "path with spaces", arg: "/work/my app/tsconfig.json", wantErr: false},
		{name: "command injection semicolon", arg: "-p; rm -rf /", wantErr: true},
		{name: "command injection pipe", arg: "x | cat /etc/passwd", wantErr: true},
		{name: "command injection backtick", arg: "x`whoami`", wantErr: true},
		{name: "dangerous shell characters", arg: "file$(whoami).txt", wantErr: true},
		{name: "newline", arg: "a\nb", wantErr: true},
		{name: "null byte", arg: "a\x00b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgument(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArgument() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	allowed := map[string]bool{"tsc": true}

	tests := []struct {
		name    string
		command string
		wantErr bool
	}{
		{name: "bare name", command: "tsc", wantErr: false},
		{name: "project binary", command: "/work/node_modules/.bin/tsc", wantErr: false},
		{name: "not allowed", command: "rm", wantErr: true},
		{name: "empty", command: "", wantErr: true},
		{name: "injection in name", command: "tsc; rm -rf /", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(tt.command, allowed)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCommand(%q) error = %v, wantErr %v", tt.command, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{name: "stem", file: "widgets", wantErr: false},
		{name: "dotted stem", file: "widgets.umd", wantErr: false},
		{name: "empty", file: "", wantErr: true},
		{name: "directory", file: "lib/widgets", wantErr: true},
		{name: "parent", file: "..", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileName(tt.file)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFileName(%q) error = %v, wantErr %v", tt.file, err, tt.wantErr)
			}
		})
	}
}
