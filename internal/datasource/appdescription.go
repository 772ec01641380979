package datasource

import (
	"context"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

// AppDescription contributes operator-written context verbatim. It
// fetches nothing and cannot fail short of cancellation.
type AppDescription struct {
	cfg config.AppDescriptionConfig
}

func NewAppDescription(cfg config.AppDescriptionConfig) *AppDescription {
	return &AppDescription{cfg: cfg}
}

func (s *AppDescription) Kind() Kind    { return KindAppDescription }
func (s *AppDescription) Label() string { return "app description" }
func (s *AppDescription) OrderNo() int  { return s.cfg.OrderNo }

func (s *AppDescription) Fetch(ctx context.Context, _ timewindow.Window, _ *Clients) (Fragment, error) {
	if err := ctx.Err(); err != nil {
		return Fragment{}, WrapError(s.Label(), ReasonQueryFailed, err, "cancelled")
	}

	return Fragment{
		OrderNo: s.cfg.OrderNo,
		Title:   "App Description",
		Body:    s.cfg.Description,
	}, nil
}
