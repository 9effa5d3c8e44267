package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/olivere/elastic.v5"
	cli "gopkg.in/urfave/cli.v1"
)

const (
	URL = `url`
)

var ElasticClient *elastic.Client = nil

func init() {
	log.SetLevel(log.InfoLevel)
	log.SetOutput(os.Stdout)
}

func main() {
	app := cli.NewApp()
	app.Name = "crashy-cli: command line utils for the crashy backend"

	app.Commands = []cli.Command{
		RemoveCommand(),
	}
	app.Run(os.Args)
}

func initElasticClient(url string) {
	c, err := elastic.NewClient(elastic.SetURL(url))

	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
			"url":   url,
		}).Fatal("Can't create ElasticSearch client")
	}
	ElasticClient = c
}
