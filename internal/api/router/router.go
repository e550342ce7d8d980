package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"stockflow/internal/api/item"
	"stockflow/internal/api/request"
	"stockflow/internal/api/stock"
	"stockflow/internal/api/transfer"
	"stockflow/internal/api/user"
	"stockflow/internal/api/warehouse"
	"stockflow/internal/domain"
	"stockflow/internal/pkg/middleware"
)

// Handlers agrupa os Handlers já inicializados, por injeção de dependências.
type Handlers struct {
	User      *user.Handler
	Item      *item.Handler
	Warehouse *warehouse.Handler
	Stock     *stock.Handler
	Request   *request.Handler
	Transfer  *transfer.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
// Usamos o ServeMux padrão do net/http; o corte grosso de autorização por
// role fica nos middlewares, e o corte fino (escopo por armazém, dono da
// requisição) fica na Política de Aprovação dentro dos serviços.
func NewRouter(h Handlers, auth func(http.HandlerFunc) http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()

	// --- 1. Health Check e documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- 2. Rotas públicas de autenticação ---
	mux.HandleFunc("/v1/register", h.User.RegisterUserHandler)
	mux.HandleFunc("/v1/login", h.User.LoginUserHandler)

	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	managerUp := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleManager)
	operatorUp := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleManager, domain.RoleOperator)

	// --- 3. Dados mestre (itens e armazéns) ---
	mux.HandleFunc("/v1/items", auth(routeByMethod(
		h.Item.ItemsHandler, map[string]func(http.HandlerFunc) http.HandlerFunc{
			http.MethodPost: managerUp,
		})))
	mux.HandleFunc("/v1/items/", auth(routeByMethod(
		h.Item.ItemByIDHandler, map[string]func(http.HandlerFunc) http.HandlerFunc{
			http.MethodPut:    managerUp,
			http.MethodDelete: adminOnly,
		})))

	mux.HandleFunc("/v1/warehouses", auth(routeByMethod(
		h.Warehouse.WarehousesHandler, map[string]func(http.HandlerFunc) http.HandlerFunc{
			http.MethodPost: adminOnly,
		})))
	mux.HandleFunc("/v1/warehouses/", auth(routeByMethod(
		h.Warehouse.WarehouseByIDHandler, map[string]func(http.HandlerFunc) http.HandlerFunc{
			http.MethodPost:   adminOnly, // designação de operador
			http.MethodPut:    adminOnly,
			http.MethodDelete: adminOnly,
		})))

	// --- 4. Estoque (check-in e consultas de saldo) ---
	mux.HandleFunc("/v1/stock/check-in", auth(operatorUp(h.Stock.CheckInHandler)))
	mux.HandleFunc("/v1/stock/on-hand", auth(h.Stock.OnHandHandler))

	// --- 5. Requisições ---
	mux.HandleFunc("/v1/requests", auth(h.Request.SubmitRequestHandler))
	mux.HandleFunc("/v1/requests/", auth(h.Request.RequestByIDHandler))

	// --- 6. Notificações e Transferências ---
	mux.HandleFunc("/v1/notifications", auth(operatorUp(h.Transfer.ListNotificationsHandler)))
	mux.HandleFunc("/v1/notifications/", auth(operatorUp(h.Transfer.ResolveNotificationHandler)))
	mux.HandleFunc("/v1/transfers/", auth(operatorUp(h.Transfer.TransferByIDHandler)))

	return mux
}

// routeByMethod aplica um middleware de permissão específico por método HTTP,
// deixando os demais métodos passarem direto (e.g., GET liberado a qualquer
// usuário autenticado, POST restrito a managers).
func routeByMethod(next http.HandlerFunc, perMethod map[string]func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if guard, ok := perMethod[r.Method]; ok {
			guard(next)(w, r)
			return
		}
		next(w, r)
	}
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
