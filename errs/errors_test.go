package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	err := New(KindWrongFragmentType, "AddFragment", "got type %d, want %d", 3, 4)

	require.ErrorIs(t, err, ErrWrongFragmentType)
	require.NotErrorIs(t, err, ErrInvalidFragment)
	require.Equal(t, "WrongFragmentType: AddFragment: got type 3, want 4", err.Error())
}

func TestError_WrappedKind(t *testing.T) {
	err := fmt.Errorf("building event 12: %w", New(KindInvalidFragment, "NewBuilder", "size mismatch"))

	require.ErrorIs(t, err, ErrInvalidFragment)
	require.Equal(t, KindInvalidFragment, KindOf(err))
}

func TestKindOf_Plain(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(ErrIndexOutOfRange))
	require.Equal(t, KindUnknown, KindOf(nil))
	require.Equal(t, KindUnknown, KindOf(errors.New("boom")))
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "InvalidFragment", KindInvalidFragment.String())
	require.Equal(t, "WrongFragmentType", KindWrongFragmentType.String())
	require.Equal(t, "Unknown", KindUnknown.String())
}

func TestError_NoOp(t *testing.T) {
	err := &Error{Kind: KindInvalidFragment, Msg: "bad"}
	require.Equal(t, "InvalidFragment: bad", err.Error())
}
