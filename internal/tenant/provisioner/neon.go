package provisioner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/smallbiznis/prizewheel/internal/config"
	"github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxErrorBody = 4 << 10

type neonCreateDatabaseRequest struct {
	Database neonDatabase `json:"database"`
}

type neonDatabase struct {
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
}

// Neon creates databases on a Neon branch through the management API.
type Neon struct {
	baseURL     string
	apiKey      string
	projectID   string
	branchID    string
	owner       string
	databaseURL string
	client      *http.Client
	log         *zap.Logger
}

func NewNeon(cfg config.TenantConfig, log *zap.Logger) *Neon {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = cfg.ProvisionTimeout
	if client.Timeout <= 0 {
		client.Timeout = 30 * time.Second
	}
	return &Neon{
		baseURL:     strings.TrimRight(cfg.NeonAPIURL, "/"),
		apiKey:      cfg.NeonAPIKey,
		projectID:   cfg.NeonProjectID,
		branchID:    cfg.NeonBranchID,
		owner:       cfg.NeonDBOwner,
		databaseURL: cfg.DatabaseURL,
		client:      client,
		log:         log.Named("tenant.provisioner.neon"),
	}
}

func (n *Neon) Name() string { return config.ProvisionerNeon }

func (n *Neon) CreateDatabase(ctx context.Context, name string) error {
	if err := n.validate(); err != nil {
		return err
	}
	owner := n.owner
	if owner == "" {
		owner = OwnerFromURL(n.databaseURL)
	}
	if owner == "" {
		return fmt.Errorf("%w: NEON_DB_OWNER is required when DATABASE_URL has no user", domain.ErrConfig)
	}

	body, err := json.Marshal(neonCreateDatabaseRequest{
		Database: neonDatabase{Name: name, OwnerName: owner},
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/projects/%s/branches/%s/databases", n.baseURL, n.projectID, n.branchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrProvisioning, err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: neon request: %v", domain.ErrProvisioning, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		n.log.Info("tenant database created", zap.String("database", name))
		return nil
	}
	if isAlreadyExists(resp.StatusCode, raw) {
		n.log.Info("tenant database already exists", zap.String("database", name))
		return nil
	}

	message := strings.TrimSpace(gjson.GetBytes(raw, "message").String())
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	return fmt.Errorf("%w: neon returned %d: %s", domain.ErrProvisioning, resp.StatusCode, message)
}

func (n *Neon) validate() error {
	var missing []string
	if n.apiKey == "" {
		missing = append(missing, "NEON_API_KEY")
	}
	if n.projectID == "" {
		missing = append(missing, "NEON_PROJECT_ID")
	}
	if n.branchID == "" {
		missing = append(missing, "NEON_BRANCH_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrConfig, strings.Join(missing, ", "))
	}
	return nil
}

func isAlreadyExists(status int, body []byte) bool {
	if status == http.StatusConflict {
		return true
	}
	return strings.Contains(strings.ToLower(string(body)), "already exists")
}
