package response

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload []byte
		want    string
	}{
		{
			name:    "ok",
			status:  StatusOK,
			payload: []byte("hello"),
			want:    "HTTP/1.0 200 OK\r\nserver: mio webserver\r\n\r\nhello",
		},
		{
			name:   "ok empty body",
			status: StatusOK,
			want:   "HTTP/1.0 200 OK\r\nserver: mio webserver\r\n\r\n",
		},
		{
			name:    "bad request ignores payload",
			status:  StatusBadRequest,
			payload: []byte("ignored"),
			want:    "HTTP/1.0 400 Bad Request\r\nServer: mio webserver\r\n\r\n",
		},
		{
			name:   "not found",
			status: StatusNotFound,
			want:   "HTTP/1.0 404 Not Found\r\nServer: mio webserver\r\n\r\n",
		},
		{
			name:    "not implemented",
			status:  StatusNotImplemented,
			payload: []byte("ignored"),
			want:    "HTTP/1.0 501 Not Implemented\r\nServer: mio webserver\r\n\r\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b, err := Build(test.status, test.payload)
			require.NoError(t, err)
			require.Equal(t, test.want, string(b))
		})
	}
}

func TestBuildBinaryPayload(t *testing.T) {
	payload := []byte{0x00, 0xff, '\r', '\n', 0x7f}
	b, err := Build(StatusOK, payload)
	require.NoError(t, err)
	require.Equal(t, payload, b[len(b)-len(payload):])
}

func TestBuildUnsupportedStatus(t *testing.T) {
	for _, status := range []int{0, 201, 302, 405, 500} {
		b, err := Build(status, []byte("x"))
		require.Error(t, err)
		require.Nil(t, b)
		require.True(t, errors.Is(err, ErrUnsupportedStatus))
	}
}
