package feed

import (
	"errors"
	"fmt"

	"github.com/linknest/linknest/internal/domain"
)

var errMissingID = errors.New("feed event has no bookmark id")

func errUnknownKind(kind domain.EventKind) error {
	return fmt.Errorf("unknown feed event kind %q", kind)
}
