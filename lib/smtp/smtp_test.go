package smtp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage("bot@farm.io", []string{"a@farm.io", "b@farm.io"}, "Task submitted", "line1\nline2")
	require.Contains(t, msg, "To: a@farm.io, b@farm.io\r\n")
	require.Contains(t, msg, "Subject: Farm Ops - Task submitted\r\n")
	require.Contains(t, msg, "\r\n\r\nline1\r\nline2\r\n")
}

func TestSendWithoutConfig(t *testing.T) {
	require.NoError(t, Connect("", "", "", "", "", false))
	require.NoError(t, Instance.SendEMail([]string{"a@farm.io"}, "x", "y"))
}
