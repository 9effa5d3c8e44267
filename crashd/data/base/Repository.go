package base

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"
	"gopkg.in/olivere/elastic.v5"

	"github.com/bvgastel/crashy/crashd/event"
)

const (
	crashIndex = "crashy"
	crashType  = "event"
)

type Repository struct {
	db    *elastic.Client
	cache Cache
}

func (r *Repository) putInCacheSignature(eventId, signature string) {
	err := r.cache.Set(eventId, signature)
	if err != nil {
		log.WithError(err).Warning("Can't put signature in cache")
	}
}

func (r *Repository) getFromCacheSignature(eventId string) string {
	v, err := r.cache.Get(eventId)
	if err != nil {
		return ""
	}

	return v
}

// AddReport indexes the report under its event id and returns that id.
func (r *Repository) AddReport(report *event.Report) (string, error) {
	res, err := r.db.
		Index().
		Index(crashIndex).
		Type(crashType).
		Id(report.EventId).
		BodyJson(report).
		Refresh("true").
		Do(context.Background())

	if err != nil {
		log.WithError(err).Error("Can't add crash report")
		return "", err
	}

	r.putInCacheSignature(report.EventId, report.Signature)
	return res.Id, nil
}

// HasReport answers whether the event id was already ingested, consulting
// the cache first.
func (r *Repository) HasReport(eventId string) (bool, error) {
	if r.getFromCacheSignature(eventId) != "" {
		return true, nil
	}

	report, err := r.GetReport(eventId)
	if (report != nil) && (err == nil) {
		return true, nil
	}

	return false, nil
}

func (r *Repository) GetReport(eventId string) (*event.Report, error) {
	get, err := r.db.Get().
		Index(crashIndex).
		Type(crashType).
		Id(eventId).
		Do(context.Background())

	if err != nil {
		return nil, err
	}

	var report event.Report
	err = json.Unmarshal(*get.Source, &report)
	if err != nil {
		log.WithError(err).Error("Can't deserialize crash report")
		return nil, err
	}
	r.putInCacheSignature(eventId, report.Signature)
	return &report, nil
}

// GetReportsBySignature queries stored events sharing a crash signature.
func (r *Repository) GetReportsBySignature(signature string, size int) ([]*event.Report, error) {
	filter := elastic.NewBoolQuery().Must(elastic.NewTermQuery("signature", signature))
	query := elastic.NewConstantScoreQuery(filter)

	searchRes, err := r.db.Search().
		Index(crashIndex).
		Type(crashType).
		Query(query).
		Sort("date_added", false).
		Size(size).
		Do(context.Background())
	if err != nil {
		return nil, err
	}

	var reports []*event.Report
	for _, hit := range searchRes.Hits.Hits {
		var report event.Report
		if err := json.Unmarshal(*hit.Source, &report); err != nil {
			log.WithError(err).Error("Can't deserialize crash report")
			continue
		}
		reports = append(reports, &report)
	}
	return reports, nil
}

func NewRepository(url string, cache Cache) (*Repository, error) {
	client, err := elastic.NewClient(elastic.SetURL(url))
	if err != nil {
		log.WithError(err).Error("Can't create ElasticSearch client")
		return nil, err
	}

	return &Repository{db: client, cache: cache}, nil
}
