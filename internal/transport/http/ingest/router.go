package ingesthttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tradelog/internal/gateway/sheets"
	"tradelog/internal/journal"
	"tradelog/internal/logger"
	"tradelog/internal/report"
)

// Router maps the ingestion endpoints onto the journal service.
type Router struct {
	svc *journal.Service
	now func() time.Time
}

// NewRouter builds the ingestion router.
func NewRouter(svc *journal.Service) *Router {
	return &Router{svc: svc, now: time.Now}
}

// Register mounts all routes on the engine root. The terminal protocol
// addresses everything at "/" and multiplexes on an action field, so
// the path space stays flat.
func (r *Router) Register(engine *gin.Engine) {
	engine.GET("/", r.handleInfo)
	engine.POST("/", r.handleEvent)
	engine.PUT("/", r.handleClose)
	engine.POST("/tradingview", r.handleTradingView)
	engine.GET("/trades", r.handleTrades)
	engine.GET("/trades/report", r.handleReport)
	engine.GET("/events", r.handleEvents)
}

func (r *Router) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "tradelog", "status": "ok"})
}

// handleEvent dispatches POST / on the action field. Legacy terminal
// clients cannot issue PUT, so a method override header also routes to
// the close path.
func (r *Router) handleEvent(c *gin.Context) {
	if strings.EqualFold(c.GetHeader("X-HTTP-Method-Override"), http.MethodPut) {
		r.handleClose(c)
		return
	}
	f, err := parseFields(c)
	if err != nil {
		logger.Warnf("[api] event body parse failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Plain creates come from the terminal, which reports already-filled
	// trades; only /tradingview alerts enter as pending signals.
	action := strings.ToLower(f.Get("action"))
	switch action {
	case "", "new_trade", "add_manual_trade":
		r.create(c, f, journal.SourceTerminal)
	case "mark_executed":
		r.markExecuted(c, f)
	case "update_trade_result":
		r.close(c, f)
	default:
		logger.Warnf("[api] unknown action ip=%s action=%s", c.ClientIP(), action)
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown action %q", action)})
	}
}

func (r *Router) create(c *gin.Context, f fields, source journal.Source) {
	entry := journal.Entry{
		Ticket:     f.Get("ticket"),
		Symbol:     f.Get("symbol"),
		Side:       f.Get("type", "side"),
		Price:      normalizePrice(f.Get("price", "entry")),
		TakeProfit: normalizePrice(f.Get("tp", "takeprofit")),
		StopLoss:   normalizePrice(f.Get("sl", "stoploss")),
		Lots:       f.GetFloat("lots", "volume"),
		Balance:    f.GetFloat("balance"),
		Source:     source,
	}
	res, err := r.svc.Create(c.Request.Context(), entry)
	if err != nil {
		r.writeError(c, "create", entry.Ticket, err)
		return
	}
	if res.Duplicate {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate", "ticket": res.Ticket})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ticket": res.Ticket, "row": res.Row})
}

func (r *Router) markExecuted(c *gin.Context, f fields) {
	ticket := f.Get("ticket")
	row, err := r.svc.MarkExecuted(c.Request.Context(), ticket, f.GetFloat("lots", "volume"), f.GetFloat("balance"))
	if err != nil {
		r.writeError(c, "mark_executed", ticket, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ticket": ticket, "row": row})
}

// handleClose serves PUT / and the override path on POST /.
func (r *Router) handleClose(c *gin.Context) {
	f, err := parseFields(c)
	if err != nil {
		logger.Warnf("[api] close body parse failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.close(c, f)
}

func (r *Router) close(c *gin.Context, f fields) {
	req := journal.Close{
		Ticket:    f.Get("ticket"),
		ExitTime:  f.Get("exittime", "exit_time"),
		ExitPrice: normalizePrice(f.Get("exitprice", "exit_price", "price")),
		Profit:    f.GetFloat("profit"),
		Balance:   f.GetFloat("balance"),
	}
	row, err := r.svc.Close(c.Request.Context(), req)
	if err != nil {
		r.writeError(c, "close", req.Ticket, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ticket": req.Ticket, "row": row})
}

// handleTradingView accepts alert webhooks. Alerts carry no ticket, so
// one is minted from the arrival time; the entry stays PENDING until
// the terminal confirms the fill.
func (r *Router) handleTradingView(c *gin.Context) {
	f, err := parseFields(c)
	if err != nil {
		logger.Warnf("[api] tradingview body parse failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry := journal.Entry{
		Ticket:     fmt.Sprintf("TV_%d", r.now().Unix()),
		Symbol:     f.Get("symbol", "ticker"),
		Side:       f.Get("side", "type"),
		Price:      normalizePrice(f.Get("price", "entry")),
		TakeProfit: normalizePrice(f.Get("tp", "takeprofit")),
		StopLoss:   normalizePrice(f.Get("sl", "stoploss")),
		Balance:    f.GetFloat("balance"),
		Source:     journal.SourceSignal,
	}
	res, err := r.svc.Create(c.Request.Context(), entry)
	if err != nil {
		r.writeError(c, "tradingview", entry.Ticket, err)
		return
	}
	if res.Duplicate {
		logger.Warnf("[api] tradingview alert collided on ticket=%s ip=%s", res.Ticket, c.ClientIP())
		c.JSON(http.StatusOK, gin.H{"status": "duplicate", "ticket": res.Ticket})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ticket": res.Ticket, "row": res.Row})
}

func (r *Router) handleTrades(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	trades, total, err := r.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		r.writeError(c, "trades", "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "total": total})
}

func (r *Router) handleReport(c *gin.Context) {
	snap := r.svc.Snapshot(c.Request.Context())
	points := report.BalanceSeries(snap, r.svc.Layout())
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.RenderBalanceChart(c.Writer, points); err != nil {
		logger.Errorf("[api] balance report render failed ip=%s err=%v", c.ClientIP(), err)
	}
}

func (r *Router) handleEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := r.svc.Events(c.Request.Context(), limit)
	if err != nil {
		r.writeError(c, "events", "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (r *Router) writeError(c *gin.Context, action, ticket string, err error) {
	switch {
	case errors.Is(err, journal.ErrValidation):
		logger.Warnf("[api] %s rejected ip=%s ticket=%s err=%v", action, c.ClientIP(), ticket, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, journal.ErrDuplicate):
		c.JSON(http.StatusOK, gin.H{"status": "duplicate", "ticket": ticket})
	case errors.Is(err, journal.ErrNotFound):
		logger.Warnf("[api] %s unknown ticket ip=%s ticket=%s", action, c.ClientIP(), ticket)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, sheets.ErrRateLimited):
		logger.Errorf("[api] %s rate limited ip=%s ticket=%s err=%v", action, c.ClientIP(), ticket, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Errorf("[api] %s failed ip=%s ticket=%s err=%v", action, c.ClientIP(), ticket, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
