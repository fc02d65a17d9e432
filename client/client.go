// Package client serves the HTTP API for report generation and retrieval.
package client

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tallyworks/crypto-cgt-cli/config"
	"github.com/tallyworks/crypto-cgt-cli/csv"
	dbTypes "github.com/tallyworks/crypto-cgt-cli/db"
	"github.com/tallyworks/crypto-cgt-cli/pricing"
	"github.com/tallyworks/crypto-cgt-cli/report"
	"github.com/tallyworks/crypto-cgt-cli/tax"
	"github.com/tallyworks/crypto-cgt-cli/util"
)

// Server carries the API's dependencies. DB may be nil, in which case report
// persistence endpoints return 503.
type Server struct {
	DB           *gorm.DB
	Jurisdiction tax.Jurisdiction
	Prices       pricing.Source
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(s *Server) *gin.Engine {
	r := gin.Default()
	r.Use(CORSMiddleware())

	r.POST("/reports", s.GenerateReport)
	r.GET("/reports", s.ListReports)
	r.GET("/reports/:id", s.GetReport)
	r.POST("/strategies", s.GenerateStrategies)
	return r
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Probably want to lock CORs down later, will need to know the hostname of the UI server
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// GenerateReportRequest is the body of POST /reports and POST /strategies.
// Transactions are submitted in the normalized CSV layout.
type GenerateReportRequest struct {
	Year            int    `json:"year"`
	Strict          bool   `json:"strict"`
	WithStrategies  bool   `json:"withStrategies"`
	RiskTolerance   string `json:"riskTolerance"`
	Format          string `json:"format"` // json (default) or csv
	Store           bool   `json:"store"`
	TransactionsCSV string `json:"transactionsCsv"`
}

func (s *Server) GenerateReport(c *gin.Context) {
	rep, format, ok := s.runGeneration(c, false)
	if !ok {
		return
	}

	if format == "csv" {
		buffer, err := csv.ToCsv(rep)
		if err != nil {
			config.Log.Error("Error rendering report csv.", err)
			_ = c.AbortWithError(500, errors.New("error rendering report csv"))
			return
		}
		c.Data(200, "text/csv", buffer.Bytes())
		return
	}
	c.JSON(200, rep)
}

func (s *Server) GenerateStrategies(c *gin.Context) {
	rep, _, ok := s.runGeneration(c, true)
	if !ok {
		return
	}
	c.JSON(200, gin.H{"reportId": rep.ID, "strategies": rep.Strategies})
}

// runGeneration parses the request, runs the generator and optionally stores
// the result. forceStrategies is set for the strategies endpoint.
func (s *Server) runGeneration(c *gin.Context, forceStrategies bool) (*tax.TaxReport, string, bool) {
	var requestBody GenerateReportRequest
	if err := c.BindJSON(&requestBody); err != nil {
		_ = c.AbortWithError(500, errors.New("error processing request body"))
		return nil, "", false
	}

	if requestBody.Year == 0 {
		c.JSON(422, gin.H{"message": "Year is required"})
		return nil, "", false
	}
	if requestBody.TransactionsCSV == "" {
		c.JSON(422, gin.H{"message": "Transactions are required"})
		return nil, "", false
	}

	txs, err := csv.ReadTransactions(strings.NewReader(requestBody.TransactionsCSV))
	if err != nil {
		c.JSON(422, gin.H{"message": err.Error()})
		return nil, "", false
	}

	gen, err := report.NewGenerator(s.Jurisdiction, s.Prices, report.Options{
		Year:           requestBody.Year,
		Strict:         requestBody.Strict,
		WithStrategies: requestBody.WithStrategies || forceStrategies,
		RiskTolerance:  tax.RiskTolerance(requestBody.RiskTolerance),
	})
	if err != nil {
		c.JSON(422, gin.H{"message": err.Error()})
		return nil, "", false
	}

	rep, err := gen.Generate(c.Request.Context(), txs)
	if err != nil {
		c.JSON(422, gin.H{"message": err.Error()})
		return nil, "", false
	}

	if requestBody.Store {
		if s.DB == nil {
			c.JSON(503, gin.H{"message": "Report storage is not configured"})
			return nil, "", false
		}
		if err := dbTypes.StoreTaxReport(s.DB, rep); err != nil {
			config.Log.Error("Error storing report.", err)
			_ = c.AbortWithError(500, errors.New("error storing report"))
			return nil, "", false
		}
	}

	return rep, requestBody.Format, true
}

func (s *Server) ListReports(c *gin.Context) {
	if s.DB == nil {
		c.JSON(503, gin.H{"message": "Report storage is not configured"})
		return
	}
	reports, err := dbTypes.GetTaxReports(s.DB)
	if err != nil {
		config.Log.Error("Error listing reports.", err)
		_ = c.AbortWithError(500, errors.New("error listing reports"))
		return
	}
	c.JSON(200, reports)
}

func (s *Server) GetReport(c *gin.Context) {
	if s.DB == nil {
		c.JSON(503, gin.H{"message": "Report storage is not configured"})
		return
	}
	record, rows, err := dbTypes.GetTaxReport(s.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"message": "No report with given id"})
			return
		}
		config.Log.Error("Error loading report.", err)
		_ = c.AbortWithError(500, errors.New("error loading report"))
		return
	}

	summaries := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, gin.H{
			"txId":          row.TxID,
			"timestamp":     row.Timestamp,
			"kind":          row.Kind,
			"source":        row.Source,
			"eventType":     row.EventType,
			"asset":         row.Asset,
			"quantity":      util.NumericToString(row.Quantity),
			"capitalGain":   util.NumericToString(row.CapitalGain),
			"capitalLoss":   util.NumericToString(row.CapitalLoss),
			"taxableAmount": util.NumericToString(row.TaxableAmount),
			"income":        util.NumericToString(row.Income),
			"deduction":     util.NumericToString(row.Deduction),
			"exempt":        row.Exempt,
			"issues":        row.Issues,
		})
	}
	c.JSON(200, gin.H{"report": record, "transactions": summaries})
}
