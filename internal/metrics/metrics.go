package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	PrincipalClient = "client"
	PrincipalAdmin  = "admin"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "laundry",
		Name:      "orders_created_total",
		Help:      "Orders accepted from clients.",
	})

	OrderStatusUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "laundry",
		Name:      "order_status_updates_total",
		Help:      "Order status changes applied by the admin.",
	})

	ClientRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laundry",
		Name:      "client_registrations_total",
		Help:      "Client registration attempts by result.",
	}, []string{"result"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laundry",
		Name:      "login_attempts_total",
		Help:      "Login attempts by principal and result.",
	}, []string{"principal", "result"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
