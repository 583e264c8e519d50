package iofs

import (
	"errors"
	"testing"

	"github.com/astroinject/astroinject/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	orig := errors.New("permission denied")

	tests := []struct {
		msg   string
		err   error
		code  gn.ErrorCode
		vars  []any
		inner string
	}{
		{
			msg:   "create dir",
			err:   CreateDirError("/tmp/x", orig),
			code:  errcode.CreateDirError,
			vars:  []any{"/tmp/x"},
			inner: "cannot create directory",
		},
		{
			msg:   "write template",
			err:   WriteTemplateError("/tmp/config.yaml", orig),
			code:  errcode.WriteTemplateError,
			vars:  []any{"/tmp/config.yaml"},
			inner: "cannot write template /tmp/config.yaml",
		},
		{
			msg:   "find files",
			err:   FindFilesError("/data", "*.fits", orig),
			code:  errcode.FindFilesError,
			vars:  []any{"/data", "*.fits"},
			inner: "cannot find files",
		},
	}

	for _, v := range tests {
		var gnErr *gn.Error
		require.True(t, errors.As(v.err, &gnErr), v.msg)
		assert.Equal(t, v.code, gnErr.Code, v.msg)
		assert.Equal(t, v.vars, gnErr.Vars, v.msg)
		assert.NotEmpty(t, gnErr.Msg, v.msg)
		assert.ErrorIs(t, gnErr.Err, orig, v.msg)
		assert.Contains(t, gnErr.Err.Error(), v.inner, v.msg)
		assert.Contains(t, gnErr.Err.Error(), "TestErrors", v.msg)
	}
}
