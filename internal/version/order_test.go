package version

import (
	"reflect"
	"testing"
)

func TestSortDescending(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "numeric not lexical",
			input: []string{"0.9.0", "0.10.0", "0.10.0rc1"},
			want:  []string{"0.10.0", "0.10.0rc1", "0.9.0"},
		},
		{
			name:  "candidates ordered by number",
			input: []string{"7.0.0rc1", "7.0.0", "7.0.0rc2"},
			want:  []string{"7.0.0", "7.0.0rc2", "7.0.0rc1"},
		},
		{
			name:  "double digit candidates",
			input: []string{"7.0.0rc2", "7.0.0rc10", "7.0.0rc9"},
			want:  []string{"7.0.0rc10", "7.0.0rc9", "7.0.0rc2"},
		},
		{
			name:  "release above its candidates across majors",
			input: []string{"8.0.0rc1", "7.4.1", "8.0.0"},
			want:  []string{"8.0.0", "8.0.0rc1", "7.4.1"},
		},
		{
			name:  "mixed majors",
			input: []string{"6.5.0", "7.1.2", "10.0.0", "7.1.10"},
			want:  []string{"10.0.0", "7.1.10", "7.1.2", "6.5.0"},
		},
		{
			name:  "unparsable dropped",
			input: []string{"7.0.0", "not-a-version", "6.0.0"},
			want:  []string{"7.0.0", "6.0.0"},
		},
		{
			name:  "empty",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortDescending(tt.input, nil)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SortDescending() = %v, want %v", got, tt.want)
			}
		})
	}
}
