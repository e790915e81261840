package workspace

import (
	"context"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/m4xw311/steward/errors"
)

// classify maps a Google API failure onto the error taxonomy.
func classify(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return errors.ClassifyStatus(gerr.Code, err, format, a...)
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		// A refresh the server rejects means the grant was revoked.
		if rerr.Response.StatusCode == 400 || rerr.Response.StatusCode == 401 {
			return errors.Fatal(err, "google authorization expired; delete the cached token and sign in again")
		}
		return errors.ClassifyStatus(rerr.Response.StatusCode, err, format, a...)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Transient(err, format, a...)
	}
	return errors.Wrapf(err, format, a...)
}
