package sync

import (
	"github.com/orbitalops/launchdash/internal/models"
	"github.com/orbitalops/launchdash/internal/spacex"
)

// mapLaunch builds the enriched launch entity from an external record and its
// resolved references. Payloads are id-only stubs; full payload detail
// enrichment is a separate concern and not part of a sync pass.
func mapLaunch(rec spacex.LaunchRecord, rocket *models.Rocket, pad *models.LaunchPad) *models.Launch {
	payloads := make([]*models.Payload, 0, len(rec.Payloads))
	for _, id := range rec.Payloads {
		payloads = append(payloads, &models.Payload{ID: id, LaunchID: rec.ID})
	}

	launch := &models.Launch{
		ID:       rec.ID,
		Name:     rec.Name,
		DateUTC:  rec.DateUTC,
		Success:  rec.Success,
		Details:  rec.Details,
		Payloads: payloads,
	}

	if rocket != nil {
		launch.RocketID = &rocket.ID
		launch.Rocket = rocket
	}
	if pad != nil {
		launch.LaunchPadID = &pad.ID
		launch.Pad = pad
	}

	return launch
}
