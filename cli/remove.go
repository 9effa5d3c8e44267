package main

import (
	"context"
	"fmt"
	"reflect"

	log "github.com/sirupsen/logrus"
	"gopkg.in/olivere/elastic.v5"
	cli "gopkg.in/urfave/cli.v1"
)

const (
	AGE       = `older`
	SIGNATURE = `signature`
	SIZE      = `count`
	SHOW      = `show_only`
)

type StoredReport struct {
	EventId   string `json:"event_id"`
	Signature string `json:"signature"`
	Source    string `json:"source"`
	CrashKind string `json:"crash_type"`
	DateAdded string `json:"date_added"`
}

type Callback func(c *cli.Context, args cli.Args) error

var rmCallbacks = map[string]Callback{
	"crashes": rmCrashes,
}

func RemoveCommand() cli.Command {
	return cli.Command{
		Name:    "remove",
		Aliases: []string{"rm"},
		Action:  remove,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  AGE,
				Value: "16d",
			},
			cli.StringFlag{
				Name:  SIGNATURE,
				Value: ".*", //Regular expression
			},
			cli.StringFlag{
				Name:  URL,
				Value: "http://127.0.0.1:9200",
			},
			cli.IntFlag{
				Name:  SIZE,
				Value: 1000,
			},
			cli.BoolFlag{
				Name: SHOW,
			},
		},
	}
}

func remove(c *cli.Context) error {
	initElasticClient(c.String(URL))

	if c.NArg() == 0 {
		message := `Empty task, available values:
	crashes`
		fmt.Println(message)
		return fmt.Errorf("Empty task")
	}

	task := c.Args().Get(0)

	if cb, ok := rmCallbacks[task]; ok {
		return cb(c, c.Args().Tail())
	} else {
		fmt.Printf("Unknown task %s\n", task)
		return fmt.Errorf("Unknown task %s", task)
	}
}

func rmCrashes(c *cli.Context, args cli.Args) error {

	older := c.String(AGE)
	signature := c.String(SIGNATURE)
	size := c.Int(SIZE)
	showOnly := c.Bool(SHOW)

	rng := elastic.NewRangeQuery("date_added")
	rng.Lte(fmt.Sprintf("now-%s", older))

	query := elastic.NewBoolQuery().Must(rng, elastic.NewRegexpQuery("signature", signature))

	searchResult, err := ElasticClient.Search().
		Index("crashy").
		Type("event").
		Query(query).
		Sort("date_added", true).
		Size(size).
		Do(context.Background())
	if err != nil {
		log.WithError(err).Panic("Can't call to Elastic")
	}

	var rtyp StoredReport
	for _, item := range searchResult.Each(reflect.TypeOf(rtyp)) {
		r := item.(StoredReport)

		if showOnly {
			log.WithFields(log.Fields{
				"event_id":  r.EventId,
				"signature": r.Signature,
				"source":    r.Source,
				"date":      r.DateAdded,
			}).Info("Crash report")
			continue
		}

		deleter := elastic.NewDeleteService(ElasticClient).
			Index("crashy").
			Type("event").
			Id(r.EventId)

		_, err := deleter.Do(context.Background())
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
				"id":    r.EventId,
			}).Error("Can't remove document in Elastic")

			return err
		}

		log.WithFields(log.Fields{
			"event_id":  r.EventId,
			"signature": r.Signature,
			"date":      r.DateAdded,
		}).Info("Removed crash report")
	}

	return nil
}
