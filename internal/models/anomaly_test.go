package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnomalyStatusTransitions(t *testing.T) {
	legal := []struct{ from, to AnomalyStatus }{
		{StatusDetectee, StatusMailEnvoye},
		{StatusDetectee, StatusResolu},
		{StatusMailEnvoye, StatusAvoirAccepte},
		{StatusMailEnvoye, StatusAvoirRefuse},
		{StatusMailEnvoye, StatusResolu},
		{StatusAvoirAccepte, StatusResolu},
		{StatusAvoirRefuse, StatusResolu},
	}
	for _, tr := range legal {
		assert.True(t, tr.from.CanTransition(tr.to), "%s -> %s should be legal", tr.from, tr.to)
	}

	illegal := []struct{ from, to AnomalyStatus }{
		{StatusDetectee, StatusAvoirAccepte},
		{StatusDetectee, StatusAvoirRefuse},
		{StatusAvoirAccepte, StatusAvoirRefuse},
		{StatusAvoirRefuse, StatusAvoirAccepte},
		{StatusResolu, StatusDetectee},
		{StatusResolu, StatusMailEnvoye},
		{StatusMailEnvoye, StatusDetectee},
	}
	for _, tr := range illegal {
		assert.False(t, tr.from.CanTransition(tr.to), "%s -> %s should be illegal", tr.from, tr.to)
	}
}

func TestAnomalyStatusValid(t *testing.T) {
	for _, s := range []AnomalyStatus{StatusDetectee, StatusMailEnvoye, StatusAvoirAccepte, StatusAvoirRefuse, StatusResolu} {
		assert.True(t, s.Valid())
	}
	assert.False(t, AnomalyStatus("archived").Valid())
	assert.False(t, AnomalyStatus("").Valid())
}
