package datasource

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

// DatabaseInstance describes one RDS instance by its DB identifier.
type DatabaseInstance struct {
	cfg config.RDSConfig
}

func NewDatabaseInstance(cfg config.RDSConfig) *DatabaseInstance {
	return &DatabaseInstance{cfg: cfg}
}

func (s *DatabaseInstance) Kind() Kind    { return KindRDS }
func (s *DatabaseInstance) Label() string { return fmt.Sprintf("rds instance %s", s.cfg.DBIdentifier) }
func (s *DatabaseInstance) OrderNo() int  { return s.cfg.OrderNo }

func (s *DatabaseInstance) Fetch(ctx context.Context, _ timewindow.Window, clients *Clients) (Fragment, error) {
	dbInstances, err := clients.Database.DBInstances(ctx)
	if err != nil {
		return Fragment{}, WrapError(s.Label(), ReasonQueryFailed, err, "describe db instances failed")
	}

	for _, db := range dbInstances {
		if db.Identifier != s.cfg.DBIdentifier {
			continue
		}

		lines := []string{
			fmt.Sprintf("DB identifier: [`%s`]", s.cfg.DBIdentifier),
			fmt.Sprintf("Class: [`%s`]", db.Class),
			fmt.Sprintf("Engine: [%s %s]", db.Engine, db.EngineVersion),
			fmt.Sprintf("Storage type: [%s]", db.StorageType),
			fmt.Sprintf("Status: [%s]", db.Status),
			fmt.Sprintf("Multi AZ: [%s]", strconv.FormatBool(db.MultiAZ)),
		}

		return Fragment{
			OrderNo: s.cfg.OrderNo,
			Title:   "RDS Instance",
			Body:    fragmentBody(lines, ""),
		}, nil
	}

	return Fragment{}, NewError(s.Label(), ReasonNotFound,
		"unable to find DB instance with name: %s", s.cfg.DBIdentifier)
}
