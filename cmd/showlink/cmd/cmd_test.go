package cmd

import (
	"bytes"
	"testing"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{arg: "42", want: 42},
		{arg: "0", wantErr: true},
		{arg: "-3", wantErr: true},
		{arg: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseID(tt.arg, "show id")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderRelated(t *testing.T) {
	items := []domain.RelatedShowsListItem{
		{Entry: domain.RelatedShowEntry{OrderIndex: 0}, Show: domain.Show{ID: 2, TraktID: 501, Title: "Dark", Year: 2017}},
		{Entry: domain.RelatedShowEntry{OrderIndex: 1}, Show: domain.Show{ID: 3, TraktID: 502, Placeholder: true}},
	}

	var buf bytes.Buffer
	require.NoError(t, renderRelated(&buf, items))

	out := buf.String()
	assert.Contains(t, out, "Dark")
	assert.Contains(t, out, "2017")
	assert.Contains(t, out, "501")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "fetched")
}

func TestShowState(t *testing.T) {
	assert.Equal(t, "tracked", showState(&domain.Show{Tracked: true}))
	assert.Equal(t, "pending", showState(&domain.Show{Placeholder: true}))
	assert.Equal(t, "fetched", showState(&domain.Show{}))
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "add", "refresh", "related", "watch"})
}
