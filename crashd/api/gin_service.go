package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"

	"github.com/bvgastel/crashy/crashd/cfg"
	"github.com/bvgastel/crashy/crashd/data/base"
	"github.com/bvgastel/crashy/crashd/event"
	"github.com/bvgastel/crashy/crashd/pipeline"
	"github.com/bvgastel/crashy/crashd/service"
)

type BaseReply struct {
	Status string `json:"status"`
}

type GinCollectorService struct {
	engine     *gin.Engine
	conf       cfg.Config
	service    *service.CollectorService
	repository *base.Repository
	pline      []pipeline.Stage
}

func (m *GinCollectorService) Init() error {
	cfg.GlobalConfigMutex.Lock()
	defer cfg.GlobalConfigMutex.Unlock()

	var err error = nil
	m.conf = cfg.GlobalConfig
	m.engine = gin.Default()

	m.service, err = service.NewCollector(m.conf)
	if err != nil {
		return err
	}

	var cache base.Cache
	if len(m.conf.Memcache()) > 0 {
		cache, _ = base.NewMemcache(m.conf.Memcache())
	} else {
		cache, _ = base.NewRedis(m.conf.RedisAddress(),
			m.conf.RedisPassword())
	}

	m.repository, err = base.NewRepository(m.conf.ElasticUrl(), cache)
	if err != nil {
		log.WithError(err).Error("Can't create repository")
		return err
	}

	m.pline = []pipeline.Stage{
		pipeline.NewRx(m.conf.BlacklistSignatures()),
		&pipeline.SignatureAndSource{},
	}

	os.MkdirAll(m.conf.SpoolDir(), 0777)

	m.applyRoutes()
	return nil
}

func (m *GinCollectorService) setSuccessStatus(c *gin.Context) {
	rMsg := &BaseReply{"success"}
	c.JSON(http.StatusOK, rMsg)
}

func (m *GinCollectorService) setServerError(descr string, c *gin.Context) {
	rMsg := &BaseReply{fmt.Sprintf("error: %s", descr)}
	c.JSON(http.StatusInternalServerError, rMsg)
}

func (m *GinCollectorService) setBadRequest(descr string, c *gin.Context) {
	rMsg := &BaseReply{fmt.Sprintf("error: %s", descr)}
	c.JSON(http.StatusBadRequest, rMsg)
}

func (m *GinCollectorService) Start() error {
	address := fmt.Sprintf("%s:%d", m.conf.Host(), m.conf.Port())
	log.WithField("address", address).Info("Run on")
	return m.engine.Run(address)
}

func (m *GinCollectorService) applyRoutes() {
	m.engine.POST("/submit", m.PostCrash())
	m.engine.GET("/crash/:id", m.GetCrash())
}

// PostCrash ingests one crash envelope as emitted by the reporter sidecar.
func (m *GinCollectorService) PostCrash() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 4<<20))
		if err != nil {
			m.setBadRequest("Can't read request body", c)
			return
		}

		e := event.FromJson(body)
		if e == nil {
			m.setBadRequest("Invalid crash event. Need json", c)
			return
		}

		if known, _ := m.repository.HasReport(e.EventId); known {
			log.WithField("event_id", e.EventId).
				Debug("Skipped duplicated crash event")
			m.setSuccessStatus(c)
			return
		}

		if err := m.spool(body); err != nil {
			log.WithError(err).Warning("Can't spool crash event")
		}

		report := event.NewReport(e)
		for _, stage := range m.pline {
			if stage.Process(report) {
				break
			}
		}

		id, err := m.repository.AddReport(report)
		if err != nil {
			m.setServerError("Can't store crash event", c)
			return
		}

		if err := m.service.AddReport(report); err != nil {
			log.WithFields(log.Fields{
				"event_id": id,
				"error":    err,
			}).Warning("Can't publish crash event")
		}

		log.WithFields(log.Fields{
			"event_id":  id,
			"signature": report.Signature,
			"source":    report.Source,
		}).Debug("Catch crash event")
		m.setSuccessStatus(c)
	}
}

func (m *GinCollectorService) GetCrash() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := m.repository.GetReport(c.Param("id"))
		if err != nil {
			m.setBadRequest("Unknown crash event", c)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// spool keeps the raw envelope on disk so nothing is lost when the backends
// are down.
func (m *GinCollectorService) spool(body []byte) error {
	name := filepath.Join(m.conf.SpoolDir(),
		fmt.Sprintf("crash_%s.json", uuid.NewV4().String()))
	return os.WriteFile(name, body, 0644)
}
