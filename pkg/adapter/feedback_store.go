package adapter

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const feedbackCollection = "feedback"

// FeedbackStore records feedback reports in Firestore instead of sending them to the
// agent service
type FeedbackStore struct {
	client   *firestore.Client
	database string
	now      func() time.Time
}

type feedbackDoc struct {
	Query     string         `firestore:"query"`
	Response  string         `firestore:"response"`
	Feedback  model.Feedback `firestore:"feedback"`
	CreatedAt time.Time      `firestore:"created_at"`
}

// NewFeedbackStore connects to the Firestore database
func NewFeedbackStore(ctx context.Context, projectID, databaseID string) (*FeedbackStore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	return &FeedbackStore{
		client:   client,
		database: databaseID,
		now:      time.Now,
	}, nil
}

func (s *FeedbackStore) ReportFeedback(ctx context.Context, report *model.FeedbackReport) error {
	doc := feedbackDoc{
		Query:     report.Query,
		Response:  report.Response,
		Feedback:  report.Feedback,
		CreatedAt: s.now(),
	}

	if _, _, err := s.client.Collection(feedbackCollection).Add(ctx, doc); err != nil {
		return s.wrap(err, "failed to add feedback document", goerr.V("feedback", report.Feedback))
	}
	return nil
}

// List returns the most recent feedback reports, newest first
func (s *FeedbackStore) List(ctx context.Context, limit int) ([]*model.FeedbackReport, error) {
	it := s.client.Collection(feedbackCollection).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	var reports []*model.FeedbackReport
	for {
		d, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, s.wrap(err, "failed to iterate feedback documents", goerr.V("limit", limit))
		}

		var doc feedbackDoc
		if err := d.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode feedback document", goerr.V("id", d.Ref.ID))
		}
		reports = append(reports, &model.FeedbackReport{
			Query:    doc.Query,
			Response: doc.Response,
			Feedback: doc.Feedback,
		})
	}
	return reports, nil
}

// wrap adds the database and, for a missing database or permission problem, a hint
func (s *FeedbackStore) wrap(err error, msg string, opts ...goerr.Option) error {
	opts = append(opts, goerr.V("database", s.database), goerr.V("code", status.Code(err).String()))
	switch status.Code(err) {
	case codes.NotFound:
		opts = append(opts, goerr.V("hint", "check that the Firestore database exists"))
	case codes.PermissionDenied, codes.Unauthenticated:
		opts = append(opts, goerr.V("hint", "check application default credentials"))
	}
	return goerr.Wrap(err, msg, opts...)
}

// Close releases the Firestore client
func (s *FeedbackStore) Close() error {
	return s.client.Close()
}
