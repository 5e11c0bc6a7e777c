package safe_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/reactask/pkg/utils/safe"
)

type failingCloser struct {
	called bool
}

func (c *failingCloser) Close() error {
	c.called = true
	return errors.New("close failed")
}

func TestClose(t *testing.T) {
	safe.Close(context.Background(), nil)

	c := &failingCloser{}
	safe.Close(context.Background(), c)
	gt.Value(t, c.called).Equal(true)
}

func TestReadAll(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		data, tooLarge, err := safe.ReadAll(strings.NewReader("hello"), 5)
		gt.NoError(t, err)
		gt.Value(t, tooLarge).Equal(false)
		gt.String(t, string(data)).Equal("hello")
	})

	t.Run("over limit", func(t *testing.T) {
		_, tooLarge, err := safe.ReadAll(strings.NewReader("hello world"), 5)
		gt.NoError(t, err)
		gt.Value(t, tooLarge).Equal(true)
	})
}
