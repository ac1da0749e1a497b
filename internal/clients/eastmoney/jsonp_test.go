package eastmoney

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONP(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"plain", `jsonpgz({"fundcode":"000001"});`, `{"fundcode":"000001"}`, nil},
		{"no semicolon", `jsonpgz({"a":1})`, `{"a":1}`, nil},
		{"whitespace", "  \n jsonpgz( {\"a\":1} ) ;\r\n", `{"a":1}`, nil},
		{"empty wrapper", `jsonpgz();`, "", ErrEmptyJSONP},
		{"missing wrapper", `{"fundcode":"000001"}`, "", ErrMalformedJSONP},
		{"wrong callback", `callback({"a":1});`, "", ErrMalformedJSONP},
		{"unterminated", `jsonpgz({"a":1}`, "", ErrMalformedJSONP},
		{"not an object", `jsonpgz([1,2]);`, "", ErrMalformedJSONP},
		{"broken json", `jsonpgz({"a":);`, "", ErrMalformedJSONP},
		{"html error page", `<html>502 Bad Gateway</html>`, "", ErrMalformedJSONP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONP([]byte(tt.body), RealtimeCallback)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
