package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inmemdb "github.com/gimvicurnik/urnik/storage/database/inmem"
	testutil "github.com/gimvicurnik/urnik/tests"
)

func TestService_Filter(t *testing.T) {
	ctx := context.Background()
	fetcher := testutil.NewStaticFetcher(map[string]interface{}{
		"/documents": []Document{
			{Type: "circular", Title: "C1"},
			{Type: "timetable", Title: "T1"},
			{Type: "other", Title: "O1"},
			{Type: "circular", Title: "C2"},
			{Type: "unknown", Title: "U1"},
		},
	})
	svc, err := NewService(inmemdb.NewStateRepository(inmemdb.Open()), fetcher)
	require.NoError(t, err)
	require.NoError(t, svc.Update(ctx))

	titles := func(docs []Document) []string {
		res := make([]string, 0, len(docs))
		for _, d := range docs {
			res = append(res, d.Title)
		}
		return res
	}
	assert.Equal(t, []string{"C2", "O1", "C1"}, titles(svc.Filter(CircularTypes)))
	assert.Equal(t, []string{"T1"}, titles(svc.Filter(DocumentTypes)))
	assert.Empty(t, svc.Filter(nil))
}

func TestTokenizer_TokenizeURL(t *testing.T) {
	tk := Tokenizer{
		NormalURL:     "https://ucilnica.test/pluginfile.php",
		WebserviceURL: "https://ucilnica.test/webservice/pluginfile.php",
	}
	tests := []struct {
		name  string
		url   string
		token string
		want  string
	}{
		{
			name:  "tokenized",
			url:   "https://ucilnica.test/pluginfile.php/12/doc.pdf",
			token: "abc",
			want:  "https://ucilnica.test/webservice/pluginfile.php/12/doc.pdf?token=abc",
		},
		{name: "no token", url: "https://ucilnica.test/pluginfile.php/12/doc.pdf", want: "https://ucilnica.test/pluginfile.php/12/doc.pdf"},
		{name: "other host", url: "https://example.com/doc.pdf", token: "abc", want: "https://example.com/doc.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tk.TokenizeURL(tt.url, tt.token))
		})
	}
}
