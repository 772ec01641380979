package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
)

func TestDatabaseInstanceFetch(t *testing.T) {
	clients := testClients()
	clients.Database = &fakeDatabase{instances: []DBInstanceInfo{
		{Identifier: "other-db", Class: "db.m5.large", Engine: "mysql", EngineVersion: "8.0"},
		{
			Identifier:    "db-identifier-name",
			Class:         "db.t4g.medium",
			Engine:        "postgresql",
			EngineVersion: "16.1",
			StorageType:   "gp3",
			Status:        "available",
			MultiAZ:       true,
		},
	}}

	source := NewDatabaseInstance(config.RDSConfig{OrderNo: 2, DBIdentifier: "db-identifier-name"})
	fragment, err := source.Fetch(context.Background(), testWindow(t), clients)
	require.NoError(t, err)

	assert.Equal(t, 2, fragment.OrderNo)
	assert.Equal(t, "RDS Instance", fragment.Title)
	assert.Equal(t, "DB identifier: [`db-identifier-name`]\n"+
		"Class: [`db.t4g.medium`]\n"+
		"Engine: [postgresql 16.1]\n"+
		"Storage type: [gp3]\n"+
		"Status: [available]\n"+
		"Multi AZ: [true]", fragment.Body)
}

func TestDatabaseInstanceNotFound(t *testing.T) {
	clients := testClients()
	clients.Database = &fakeDatabase{instances: []DBInstanceInfo{
		{Identifier: "db-identifier-name-2"},
	}}

	source := NewDatabaseInstance(config.RDSConfig{DBIdentifier: "db-identifier-name-1"})
	_, err := source.Fetch(context.Background(), testWindow(t), clients)
	require.Error(t, err)

	var dsErr *Error
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ReasonNotFound, dsErr.Reason)
	assert.Contains(t, err.Error(), "unable to find DB instance with name: db-identifier-name-1")
}

func TestDatabaseInstanceQueryFailure(t *testing.T) {
	apiErr := errors.New("access denied")
	clients := testClients()
	clients.Database = &fakeDatabase{err: apiErr}

	source := NewDatabaseInstance(config.RDSConfig{DBIdentifier: "db"})
	_, err := source.Fetch(context.Background(), testWindow(t), clients)
	require.Error(t, err)

	var dsErr *Error
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ReasonQueryFailed, dsErr.Reason)
	assert.ErrorIs(t, err, apiErr)
}
