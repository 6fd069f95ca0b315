// Package cloudsim is an in-memory implementation of the cloud sync
// protocol. It backs the development sync server and the protocol tests;
// it is not the production cloud.
package cloudsim

import (
	"net/http"
	"strings"
	stdsync "sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	syncapp "github.com/meditrack/backend/internal/application/sync"
)

const tokenTTL = 24 * time.Hour

type account struct {
	passwordHash []byte
	user         syncapp.AuthUser
}

// Server holds the in-memory cloud state
type Server struct {
	mu       stdsync.Mutex
	secret   []byte
	accounts map[string]account

	branches  map[uuid.UUID]syncapp.BranchRecord
	users     map[uuid.UUID]syncapp.UserRecord
	medicines map[uuid.UUID]syncapp.MedicineRecord
	customers map[uuid.UUID]syncapp.CustomerRecord
	suppliers map[uuid.UUID]syncapp.SupplierRecord

	sales          map[uuid.UUID]syncapp.SaleRecord
	purchaseOrders map[uuid.UUID]syncapp.PurchaseOrderRecord
	grns           map[uuid.UUID]syncapp.GRNRecord
	deletions      []syncapp.DeletionRecord

	logger *zap.Logger
}

// New creates an empty cloud simulator signing tokens with secret
func New(secret string, logger *zap.Logger) *Server {
	return &Server{
		secret:         []byte(secret),
		accounts:       make(map[string]account),
		branches:       make(map[uuid.UUID]syncapp.BranchRecord),
		users:          make(map[uuid.UUID]syncapp.UserRecord),
		medicines:      make(map[uuid.UUID]syncapp.MedicineRecord),
		customers:      make(map[uuid.UUID]syncapp.CustomerRecord),
		suppliers:      make(map[uuid.UUID]syncapp.SupplierRecord),
		sales:          make(map[uuid.UUID]syncapp.SaleRecord),
		purchaseOrders: make(map[uuid.UUID]syncapp.PurchaseOrderRecord),
		grns:           make(map[uuid.UUID]syncapp.GRNRecord),
		logger:         logger,
	}
}

// AddAccount registers a login. Used by the dev server at startup and by
// tests.
func (s *Server) AddAccount(email, password, name, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(email)] = account{
		passwordHash: hash,
		user: syncapp.AuthUser{
			ID:    uuid.NewString(),
			Name:  name,
			Email: strings.ToLower(email),
			Role:  role,
		},
	}
	return nil
}

// SeedBranch stores a branch record with updatedAt stamped now
func (s *Server) SeedBranch(rec syncapp.BranchRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[rec.ID] = stampBranch(rec)
}

// SeedUser stores a user record with updatedAt stamped now
func (s *Server) SeedUser(rec syncapp.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[rec.ID] = stampUser(rec)
}

// SeedMedicine stores a medicine record with updatedAt stamped now
func (s *Server) SeedMedicine(rec syncapp.MedicineRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.medicines[rec.ID] = stampMedicine(rec)
}

// SeedCustomer stores a customer record with updatedAt stamped now
func (s *Server) SeedCustomer(rec syncapp.CustomerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[rec.ID] = stampCustomer(rec)
}

// SeedSupplier stores a supplier record with updatedAt stamped now
func (s *Server) SeedSupplier(rec syncapp.SupplierRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[rec.ID] = stampSupplier(rec)
}

// Medicines returns the stored medicine records. Test helper.
func (s *Server) Medicines() []syncapp.MedicineRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]syncapp.MedicineRecord, 0, len(s.medicines))
	for _, rec := range s.medicines {
		out = append(out, rec)
	}
	return out
}

// Sales returns the uploaded sales. Test helper.
func (s *Server) Sales() []syncapp.SaleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]syncapp.SaleRecord, 0, len(s.sales))
	for _, rec := range s.sales {
		out = append(out, rec)
	}
	return out
}

// Deletions returns the uploaded deletion notices. Test helper.
func (s *Server) Deletions() []syncapp.DeletionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]syncapp.DeletionRecord(nil), s.deletions...)
}

// Router builds the gin engine serving the protocol
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api/sync/auth", s.handleAuth)
	authed := r.Group("/", s.requireToken)
	authed.GET("/api/sync", s.handlePull)
	authed.POST("/api/sync", s.handlePush)
	return r
}

func (s *Server) handleAuth(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email and password are required"})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid credentials"})
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   acct.user.ID,
		"email": acct.user.Email,
		"role":  acct.user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "token signing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": signed, "user": acct.user})
}

func (s *Server) requireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing bearer token"})
		return
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
		return
	}
	c.Next()
}

func (s *Server) handlePull(c *gin.Context) {
	var since time.Time
	if raw := c.Query("lastSyncAt"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid lastSyncAt"})
			return
		}
		since = parsed
	}

	s.mu.Lock()
	data := syncapp.PullData{
		Branches:  filterBranches(s.branches, since),
		Users:     filterUsers(s.users, since),
		Medicines: filterMedicines(s.medicines, since),
		Customers: filterCustomers(s.customers, since),
		Suppliers: filterSuppliers(s.suppliers, since),
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"syncedAt": time.Now().UTC(),
		"data":     data,
	})
}

func (s *Server) handlePush(c *gin.Context) {
	var req syncapp.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "malformed upload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := map[string]int64{}
	for _, rec := range req.Branches {
		s.branches[rec.ID] = stampBranch(rec)
		results["branches"]++
	}
	for _, rec := range req.Users {
		s.users[rec.ID] = stampUser(rec)
		results["users"]++
	}
	for _, rec := range req.Medicines {
		s.medicines[rec.ID] = stampMedicine(rec)
		results["medicines"]++
	}
	for _, rec := range req.Customers {
		s.customers[rec.ID] = stampCustomer(rec)
		results["customers"]++
	}
	for _, rec := range req.Suppliers {
		s.suppliers[rec.ID] = stampSupplier(rec)
		results["suppliers"]++
	}
	for _, rec := range req.Sales {
		s.sales[rec.ID] = rec
		results["sales"]++
	}
	for _, rec := range req.PurchaseOrders {
		s.purchaseOrders[rec.ID] = rec
		results["purchaseOrders"]++
	}
	for _, rec := range req.GRNs {
		s.grns[rec.ID] = rec
		results["grns"]++
	}
	for _, del := range req.Deletions {
		s.applyDeletion(del)
		s.deletions = append(s.deletions, del)
		results["deletions"]++
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (s *Server) applyDeletion(del syncapp.DeletionRecord) {
	switch del.EntityType {
	case "BRANCH":
		delete(s.branches, del.EntityID)
	case "USER":
		delete(s.users, del.EntityID)
	case "MEDICINE":
		delete(s.medicines, del.EntityID)
	case "CUSTOMER":
		delete(s.customers, del.EntityID)
	case "SUPPLIER":
		delete(s.suppliers, del.EntityID)
	case "SALE":
		delete(s.sales, del.EntityID)
	case "PURCHASE_ORDER":
		delete(s.purchaseOrders, del.EntityID)
	case "GRN":
		delete(s.grns, del.EntityID)
	}
}

func stamp() *time.Time {
	t := time.Now().UTC()
	return &t
}

func stampBranch(rec syncapp.BranchRecord) syncapp.BranchRecord {
	rec.UpdatedAt = stamp()
	return rec
}

func stampUser(rec syncapp.UserRecord) syncapp.UserRecord {
	rec.UpdatedAt = stamp()
	return rec
}

func stampMedicine(rec syncapp.MedicineRecord) syncapp.MedicineRecord {
	rec.UpdatedAt = stamp()
	return rec
}

func stampCustomer(rec syncapp.CustomerRecord) syncapp.CustomerRecord {
	rec.UpdatedAt = stamp()
	return rec
}

func stampSupplier(rec syncapp.SupplierRecord) syncapp.SupplierRecord {
	rec.UpdatedAt = stamp()
	return rec
}

func after(t *time.Time, since time.Time) bool {
	if since.IsZero() {
		return true
	}
	return t != nil && t.After(since)
}

func filterBranches(m map[uuid.UUID]syncapp.BranchRecord, since time.Time) []syncapp.BranchRecord {
	out := []syncapp.BranchRecord{}
	for _, rec := range m {
		if after(rec.UpdatedAt, since) {
			out = append(out, rec)
		}
	}
	return out
}

func filterUsers(m map[uuid.UUID]syncapp.UserRecord, since time.Time) []syncapp.UserRecord {
	out := []syncapp.UserRecord{}
	for _, rec := range m {
		if after(rec.UpdatedAt, since) {
			out = append(out, rec)
		}
	}
	return out
}

func filterMedicines(m map[uuid.UUID]syncapp.MedicineRecord, since time.Time) []syncapp.MedicineRecord {
	out := []syncapp.MedicineRecord{}
	for _, rec := range m {
		if after(rec.UpdatedAt, since) {
			out = append(out, rec)
		}
	}
	return out
}

func filterCustomers(m map[uuid.UUID]syncapp.CustomerRecord, since time.Time) []syncapp.CustomerRecord {
	out := []syncapp.CustomerRecord{}
	for _, rec := range m {
		if after(rec.UpdatedAt, since) {
			out = append(out, rec)
		}
	}
	return out
}

func filterSuppliers(m map[uuid.UUID]syncapp.SupplierRecord, since time.Time) []syncapp.SupplierRecord {
	out := []syncapp.SupplierRecord{}
	for _, rec := range m {
		if after(rec.UpdatedAt, since) {
			out = append(out, rec)
		}
	}
	return out
}
