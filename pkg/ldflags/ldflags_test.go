package ldflags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		want  []Assignment
		extra []string
	}{
		{
			name: "separate_argument",
			args: []string{"-s", "-X", "example.com/m/hello.Hello=HI", "-w"},
			want: []Assignment{
				{Package: "example.com/m/hello", Name: "Hello", Value: "HI"},
			},
			extra: []string{"-s", "-w"},
		},
		{
			name: "equals_form",
			args: []string{"-X=main.version=1.2.3"},
			want: []Assignment{
				{Package: "main", Name: "version", Value: "1.2.3"},
			},
		},
		{
			name: "single_element_with_space",
			args: []string{"-X example.com/m/yolo.Yolo1=a=b"},
			want: []Assignment{
				{Package: "example.com/m/yolo", Name: "Yolo1", Value: "a=b"},
			},
		},
		{
			name: "empty_value",
			args: []string{"--X", "main.gitCommit="},
			want: []Assignment{
				{Package: "main", Name: "gitCommit", Value: ""},
			},
		},
		{
			name:  "no_assignments",
			args:  []string{"-s", "-w", "-linkmode=external"},
			extra: []string{"-s", "-w", "-linkmode=external"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, err := Parse(tt.args)
			require.NoError(t, err)
			require.Equal(t, tt.want, flags.Assignments)
			require.Equal(t, tt.extra, flags.Args)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "dangling_flag", args: []string{"-X"}, wantErr: "needs a definition"},
		{name: "missing_equals", args: []string{"-X", "main.version"}, wantErr: "missing '='"},
		{name: "missing_package", args: []string{"-X", "version=1"}, wantErr: "importpath.name"},
		{name: "leading_dot", args: []string{"-X", ".version=1"}, wantErr: "importpath.name"},
		{name: "trailing_dot", args: []string{"-X", "main.=1"}, wantErr: "importpath.name"},
		{name: "dot_before_slash", args: []string{"-X", "example.com/m=1"}, wantErr: "importpath.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLast(t *testing.T) {
	flags, err := Parse([]string{
		"-X", "main.a=1",
		"-X", "main.b=2",
		"-X", "main.a=3",
	})
	require.NoError(t, err)

	last := flags.Last()
	require.Len(t, last, 2)
	require.Equal(t, "main.a=3", last[0].String())
	require.Equal(t, "main.b=2", last[1].String())
}

func TestString(t *testing.T) {
	flags := Flags{
		Args: []string{"-s", "-extldflags=-static -lm"},
		Assignments: []Assignment{
			{Package: "main", Name: "version", Value: "dev"},
			{Package: "main", Name: "msg", Value: "it's here"},
		},
	}
	require.Equal(t,
		`-s '-extldflags=-static -lm' -X main.version=dev -X "main.msg=it's here"`,
		flags.String())

	require.Empty(t, Flags{}.String())
}
