package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/modules"
)

type stubFlow struct{}

func (stubFlow) Start(domain.IdentificationStep, func(flow.Result[domain.FlowOutput])) {}

func TestFactoryLinking(t *testing.T) {
	f := NewFactory()
	deps := &Dependencies{}

	assert.Nil(t, f.MakeQES(deps))
	assert.Nil(t, f.MakeBankID(deps))
	assert.Equal(t, modules.NewSet(modules.Core), f.Linked())

	f.LinkQES(func(*Dependencies) SubFlow { return stubFlow{} })
	f.LinkBankID(func(*Dependencies) SubFlow { return stubFlow{} })

	assert.NotNil(t, f.MakeQES(deps))
	assert.NotNil(t, f.MakeBankID(deps))
	assert.Nil(t, f.MakeFourthline(deps))
	assert.True(t, f.Linked().Has(modules.QES))
	assert.True(t, f.Linked().Has(modules.Bank))
	assert.False(t, f.Linked().Has(modules.Fourthline))
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 5, s.DefaultRetries)
	assert.Equal(t, "3s", s.PollInterval.String())
	assert.Equal(t, "20s", s.ResendCooldown.String())
	assert.NotNil(t, NoBackgroundTasks{}.Begin("upload"))
}
