package soap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    Endpoint
		wantErr bool
	}{
		{
			name: "host and path",
			url:  "https://pal-test.example.com/pal/servlet/soap/Payment",
			want: Endpoint{Host: "pal-test.example.com", Port: 443, Path: "/pal/servlet/soap/Payment"},
		},
		{
			name: "explicit port",
			url:  "https://gateway.example.com:8443/soap/Recurring",
			want: Endpoint{Host: "gateway.example.com", Port: 8443, Path: "/soap/Recurring"},
		},
		{
			name: "no path",
			url:  "https://gateway.example.com",
			want: Endpoint{Host: "gateway.example.com", Port: 443, Path: "/"},
		},
		{
			name: "query kept",
			url:  "https://gateway.example.com/soap?version=2",
			want: Endpoint{Host: "gateway.example.com", Port: 443, Path: "/soap?version=2"},
		},
		{name: "plain http", url: "http://gateway.example.com/soap", wantErr: true},
		{name: "no host", url: "https:///soap", wantErr: true},
		{name: "bad port", url: "https://gateway.example.com:99999/soap", wantErr: true},
		{name: "garbage", url: "://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpoint(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestEndpoint_URL(t *testing.T) {
	e := Endpoint{Host: "gateway.example.com", Port: 443, Path: "/soap/Payment"}
	assert.Equal(t, "gateway.example.com:443", e.Address())
	assert.Equal(t, "https://gateway.example.com:443/soap/Payment", e.URL())
	assert.Equal(t, e.URL(), e.String())

	v6 := Endpoint{Host: "::1", Port: 8443, Path: "/"}
	assert.Equal(t, "https://[::1]:8443/", v6.URL())
}

func TestEndpoint_Validate(t *testing.T) {
	assert.Error(t, Endpoint{Port: 443, Path: "/"}.Validate())
	assert.Error(t, Endpoint{Host: "h", Port: 0, Path: "/"}.Validate())
	assert.Error(t, Endpoint{Host: "h", Port: 443, Path: "soap"}.Validate())
	assert.Error(t, Endpoint{Host: "h", Port: 443}.Validate())
	assert.NoError(t, Endpoint{Host: "h", Port: 443, Path: "/soap"}.Validate())
}
