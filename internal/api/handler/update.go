package handler

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bcnelson/firewall-ddns/internal/auth"
	"github.com/bcnelson/firewall-ddns/internal/domain"
	"github.com/bcnelson/firewall-ddns/internal/provider"
	"github.com/bcnelson/firewall-ddns/internal/service"
	"github.com/bcnelson/firewall-ddns/internal/validation"
)

// Names reported when required inputs are absent.
const (
	fieldHostname = "hostname"
	fieldMyIP     = "myip"
	fieldAuth     = "username, password (Basic Auth)"
)

// UpdateHandler serves the DynDNS-style update endpoint.
type UpdateHandler struct {
	registry      *provider.Registry
	updateService *service.UpdateService
	clientIP      *ClientIPResolver
	logger        *zap.Logger
}

// NewUpdateHandler creates a new UpdateHandler.
func NewUpdateHandler(registry *provider.Registry, updateService *service.UpdateService, clientIP *ClientIPResolver, logger *zap.Logger) *UpdateHandler {
	if clientIP == nil {
		clientIP = &ClientIPResolver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateHandler{
		registry:      registry,
		updateService: updateService,
		clientIP:      clientIP,
		logger:        logger,
	}
}

// Update validates the request and hands it to the provider named by the
// Basic auth username. Every failure before the provider call is a 400.
func (h *UpdateHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerIP := h.clientIP.Resolve(r)
	logger := h.logger.With(zap.String("caller_ip", callerIP))

	query := r.URL.Query()
	hostname := query.Get("hostname")
	ip := query.Get("myip")
	if ip == "" {
		ip = query.Get("ip")
	}
	creds, hasAuth := auth.ParseBasic(r.Header.Get("Authorization"))

	var missing []string
	if hostname == "" {
		missing = append(missing, fieldHostname)
	}
	if ip == "" {
		missing = append(missing, fieldMyIP)
	}
	if !hasAuth {
		missing = append(missing, fieldAuth)
	}
	if len(missing) > 0 {
		fields := strings.Join(missing, ", ")
		logger.Info("request missing fields", zap.String("missing", fields))
		respondText(w, http.StatusBadRequest, "Missing required fields: "+fields)
		return
	}

	p, ok := h.registry.Lookup(creds.Username)
	if !ok {
		logger.Info("invalid provider", zap.String("provider", creds.Username))
		respondText(w, http.StatusBadRequest, fmt.Sprintf("Invalid provider: %s. Valid providers: %s",
			creds.Username, strings.Join(h.registry.Names(), ", ")))
		return
	}

	if err := validation.ValidateIPv4(ip); err != nil {
		logger.Info("invalid ip", zap.String("ip", ip), zap.Error(err))
		respondText(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("updating firewall",
		zap.String("provider", p.Name),
		zap.String("hostname", hostname),
		zap.String("ip", ip),
	)

	err := h.updateService.Update(r.Context(), p, domain.UpdateRequest{
		CallerIP:     callerIP,
		Hostname:     hostname,
		IP:           ip,
		ProviderName: creds.Username,
		Token:        creds.Password,
	})
	result := service.Classify(err)
	respondText(w, result.Status, result.Message)
}
