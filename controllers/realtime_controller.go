package controllers

import (
	"net/http"
	"time"

	"glowfit/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsPingInterval = 25 * time.Second

type RealtimeController struct {
	RT     *services.RealtimeHub
	Alerts *services.AlertBus
}

func NewRealtimeController(rt *services.RealtimeHub, alerts *services.AlertBus) *RealtimeController {
	return &RealtimeController{RT: rt, Alerts: alerts}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // auth is by token, never cookies
}

func (rc *RealtimeController) AlertsWS(c *gin.Context) {
	uid := c.GetUint("userID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &services.WSClient{UserID: uid, Conn: conn}
	rc.RT.Register(cl)

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(wsPingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.Ping(); err != nil {
					rc.RT.Unregister(cl)
					return
				}
			}
		}
	}()

	// read loop ends on client close/error
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			rc.RT.Unregister(cl)
			return
		}
	}
}

// List returns recent alerts; ?unread=true limits to unread ones.
func (rc *RealtimeController) List(c *gin.Context) {
	alerts, err := rc.Alerts.List(c.Request.Context(), c.GetUint("userID"), c.Query("unread") == "true", intQuery(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (rc *RealtimeController) MarkRead(c *gin.Context) {
	if err := rc.Alerts.MarkAllRead(c.Request.Context(), c.GetUint("userID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
