package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source/fake"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/testsupport/sessiondata"
)

func TestResolver_Resolve(t *testing.T) {
	da := fake.New(fake.WithEvents(2024, sessiondata.SampleEvents()))
	r := source.NewResolver(da, source.WithSessionType(model.SessionTypeQualifying))
	ctx := context.Background()

	got, err := r.Resolve(ctx, 2024, "FORMULA 1 CRYPTO.COM MIAMI GRAND PRIX 2024")
	assert.NoError(t, err)
	assert.Equal(t, model.SessionIdentity{
		Year: 2024, Location: "Miami", Type: model.SessionTypeQualifying,
	}, got)

	_, err = r.Resolve(ctx, 2024, "unknown")
	assert.ErrorIs(t, err, source.ErrEventNotFound)
	assert.Equal(t, 1, da.ListCalls(), "schedule is cached")
}

func TestResolver_SourceFailure(t *testing.T) {
	da := fake.New()
	da.SetFailing(true)
	r := source.NewResolver(da)
	_, err := r.Events(context.Background(), 2024)
	assert.ErrorIs(t, err, fake.ErrUnavailable)
}
