package steps

import (
	"fmt"

	"github.com/portraitlane/statusboard/internal/models"
)

var labels = map[string]string{
	models.StageUploadPhoto:   "Upload Photo",
	models.StageInProgress:    "In Progress",
	models.StageCheckDelivery: "Check Delivery",
	models.StageCheckRevision: "Check Revision",
	models.StageOrderComplete: "Order Complete",
}

// Which stages carry a deep link into an external tool.
var clickable = map[string]bool{
	models.StageUploadPhoto:   true,
	models.StageCheckDelivery: true,
	models.StageCheckRevision: true,
}

// Templates are the per-stage URL formats. Upload takes the project id,
// delivery takes the link id, revision takes the link id and the revision
// number (in that order).
type Templates struct {
	UploadURL   string
	DeliveryURL string
	RevisionURL string
}

// Deriver turns a current stage plus a tracking record into the fixed
// five-step view. It holds only templates and is safe to share.
type Deriver struct {
	tpl Templates
}

func NewDeriver(tpl Templates) *Deriver {
	return &Deriver{tpl: tpl}
}

// Derive is pure: same inputs produce the same steps, nothing is stored.
// Steps below the current stage are completed, the current one is
// in_progress, the rest pending. An unknown stage sorts below everything
// (index -1), so all five steps come back pending with no URLs.
func (d *Deriver) Derive(currentStage string, rec *models.TrackingRecord) []models.StepView {
	cur := models.StageIndex(currentStage)

	out := make([]models.StepView, 0, len(models.Stages))
	for i, id := range models.Stages {
		st := models.StepPending
		switch {
		case i < cur:
			st = models.StepCompleted
		case i == cur:
			st = models.StepInProgress
		}

		var url *string
		if clickable[id] && i <= cur {
			if u := d.stageURL(id, rec); u != "" {
				url = &u
			}
		}

		out = append(out, models.StepView{
			ID:        id,
			Label:     labels[id],
			Status:    st,
			Clickable: clickable[id],
			URL:       url,
		})
	}
	return out
}

// stageURL builds the deep link for one stage, or "" when the record has no
// identifier to substitute.
func (d *Deriver) stageURL(id string, rec *models.TrackingRecord) string {
	if rec == nil {
		return ""
	}
	switch id {
	case models.StageUploadPhoto:
		if d.tpl.UploadURL == "" || rec.ProjectID == "" {
			return ""
		}
		return fmt.Sprintf(d.tpl.UploadURL, rec.ProjectID)
	case models.StageCheckDelivery:
		if d.tpl.DeliveryURL == "" || rec.LinkID == "" {
			return ""
		}
		return fmt.Sprintf(d.tpl.DeliveryURL, rec.LinkID)
	case models.StageCheckRevision:
		if d.tpl.RevisionURL == "" || rec.LinkID == "" {
			return ""
		}
		rev := rec.RevisionNumber
		if rev <= 0 {
			rev = 1
		}
		return fmt.Sprintf(d.tpl.RevisionURL, rec.LinkID, rev)
	}
	return ""
}
