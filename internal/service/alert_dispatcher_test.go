package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
	"github.com/edutrack-io/internship-api/pkg/jobs"
)

type notifierStub struct {
	delivered []string
	err       error
}

func (n *notifierStub) Deliver(ctx context.Context, alert *models.Alert) error {
	if n.err != nil {
		return n.err
	}
	n.delivered = append(n.delivered, alert.ID)
	return nil
}

type senderStub struct {
	sent []string
	err  error
}

func (s *senderStub) MarkSent(ctx context.Context, id string) (*models.Alert, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, id)
	return &models.Alert{ID: id, Status: models.AlertStatusSent}, nil
}

func deliveryJob(alertID string) jobs.Job {
	return jobs.Job{ID: "job-1", Type: JobTypeAlertDelivery, Payload: alertID}
}

func TestDispatcherDeliversAndMarksSent(t *testing.T) {
	repo := newAlertRepoStub(pendingAlert("a-1"))
	notifier := &notifierStub{}
	sender := &senderStub{}
	dispatcher := NewAlertDispatcher(repo, sender, notifier, nil)

	err := dispatcher.Handle(context.Background(), deliveryJob("a-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1"}, notifier.delivered)
	assert.Equal(t, []string{"a-1"}, sender.sent)
}

func TestDispatcherSkipsNonPendingAlerts(t *testing.T) {
	read := pendingAlert("a-1")
	read.Status = models.AlertStatusRead
	notifier := &notifierStub{}
	sender := &senderStub{}
	dispatcher := NewAlertDispatcher(newAlertRepoStub(read), sender, notifier, nil)

	err := dispatcher.Handle(context.Background(), deliveryJob("a-1"))
	require.NoError(t, err)
	assert.Empty(t, notifier.delivered)
	assert.Empty(t, sender.sent)
}

func TestDispatcherToleratesConcurrentSend(t *testing.T) {
	repo := newAlertRepoStub(pendingAlert("a-1"))
	sender := &senderStub{err: appErrors.Clone(appErrors.ErrIllegalTransition, "alert is not pending")}
	dispatcher := NewAlertDispatcher(repo, sender, &notifierStub{}, nil)

	err := dispatcher.Handle(context.Background(), deliveryJob("a-1"))
	require.NoError(t, err)
}

func TestDispatcherPropagatesDeliveryFailure(t *testing.T) {
	repo := newAlertRepoStub(pendingAlert("a-1"))
	notifier := &notifierStub{err: errors.New("smtp down")}
	sender := &senderStub{}
	dispatcher := NewAlertDispatcher(repo, sender, notifier, nil)

	err := dispatcher.Handle(context.Background(), deliveryJob("a-1"))
	require.Error(t, err)
	assert.Empty(t, sender.sent)
}

func TestDispatcherRejectsMalformedPayload(t *testing.T) {
	dispatcher := NewAlertDispatcher(newAlertRepoStub(), &senderStub{}, &notifierStub{}, nil)

	err := dispatcher.Handle(context.Background(), jobs.Job{ID: "job-1", Type: JobTypeAlertDelivery, Payload: 42})
	require.Error(t, err)
}
