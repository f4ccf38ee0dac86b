// @title           Procura API
// @version         1.0
// @description     Procura procurement & supplier operations API
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@procura.dev

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api
// @Schemes 	http https

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/procura/internal/audit"
	auditdomain "github.com/smallbiznis/procura/internal/audit/domain"
	"github.com/smallbiznis/procura/internal/clock"
	"github.com/smallbiznis/procura/internal/config"
	"github.com/smallbiznis/procura/internal/observability"
	"github.com/smallbiznis/procura/internal/procurementmetrics"
	"github.com/smallbiznis/procura/internal/purchaseorder"
	orderdomain "github.com/smallbiznis/procura/internal/purchaseorder/domain"
	"github.com/smallbiznis/procura/internal/purchaserequest"
	requestdomain "github.com/smallbiznis/procura/internal/purchaserequest/domain"
	"github.com/smallbiznis/procura/internal/realtime"
	"github.com/smallbiznis/procura/internal/seed"
	"github.com/smallbiznis/procura/internal/server"
	"github.com/smallbiznis/procura/internal/supplier"
	supplierdomain "github.com/smallbiznis/procura/internal/supplier/domain"
	"github.com/smallbiznis/procura/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Core dependencies for API
		realtime.Module,
		supplier.Module,
		purchaserequest.Module,
		purchaseorder.Module,
		procurementmetrics.Module,
		audit.Module,

		fx.Invoke(autoMigrate),
		fx.Invoke(seedDev),

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		panic(err)
	}
	return node
}

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&supplierdomain.Supplier{},
		&requestdomain.PurchaseRequest{},
		&requestdomain.PurchaseRequestItem{},
		&orderdomain.PurchaseOrder{},
		&orderdomain.PurchaseOrderItem{},
		&auditdomain.AuditLog{},
	)
}

func seedDev(cfg config.Config, conn *gorm.DB) error {
	if cfg.IsProduction() {
		return nil
	}
	return seed.EnsureDemoSupplier(conn)
}
