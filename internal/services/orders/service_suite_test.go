package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/portraitlane/statusboard/internal/models"
)

type ServiceSuite struct {
	suite.Suite

	store *fakeStore
	shop  *fakeShop
	svc   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.store = newFakeStore()
	s.shop = newFakeShop()
	s.svc = testService(s.store, s.shop)
}

func (s *ServiceSuite) TestFullPipeline() {
	ctx := context.Background()
	s.shop.orders["1001"] = &models.ShopifyOrder{ID: 7, Name: "#1001"}

	stages := []string{
		models.StageUploadPhoto,
		models.StageInProgress,
		models.StageCheckDelivery,
		models.StageCheckRevision,
		models.StageOrderComplete,
	}
	for i, stage := range stages {
		v, tagged, err := s.svc.Update(ctx, "1001", models.TrackingPatch{CurrentStatus: &stage})
		s.Require().NoError(err)
		s.Require().Equal(stage, v.CurrentStatus)
		s.Require().Equal(models.StepInProgress, v.Steps[i].Status)
		s.Require().Equal(stage == models.StageOrderComplete, tagged)
	}

	s.Require().Len(s.shop.tagUpdates, 1)
}

func (s *ServiceSuite) TestNormalizationConsistentAcrossPaths() {
	ctx := context.Background()
	status := models.StageCheckDelivery

	_, _, err := s.svc.Update(ctx, "#1001", models.TrackingPatch{CurrentStatus: &status})
	s.Require().NoError(err)

	forms := []string{"1001", "#1001", "  #1001  "}
	for _, f := range forms {
		v, err := s.svc.Get(ctx, f)
		s.Require().NoError(err, f)
		s.Require().Equal("#1001", v.OrderNumber, f)
		s.Require().Equal(models.StageCheckDelivery, v.CurrentStatus, f)
	}

	// One key in the store regardless of input form.
	s.Require().Len(s.store.recs, 1)
	_, ok := s.store.recs["1001"]
	s.Require().True(ok)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
