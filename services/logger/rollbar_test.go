package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

func TestRollbarLogger_prints(t *testing.T) {
	buf := new(bytes.Buffer)
	l := NewRollbarLogger(log.New(buf, "", 0), core.NewTestConfig())

	usr := user.User{ID: "u1", Email: "ana@pmnts.ac.pg", Role: user.RoleStudent}
	l.Warn("object store unavailable", errors.New("dial tcp: timeout"), usr)

	out := buf.String()
	assert.Contains(t, out, "[WARN] object store unavailable")
	assert.Contains(t, out, "dial tcp: timeout")
	assert.NotContains(t, out, "ana@pmnts.ac.pg")
}

func Test_rollbarArgs(t *testing.T) {
	err := errors.New("boom")
	extra := map[string]interface{}{"path": "/api/files"}
	got := rollbarArgs("msg", []interface{}{err, user.User{ID: "u1"}, extra})
	want := []interface{}{"msg", err, extra}
	assert.Equal(t, want, got)
}
