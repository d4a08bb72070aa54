// Package apidocs регистрирует описание HTTP API для Swagger UI.
package apidocs

import (
	_ "embed"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

//go:embed swagger.json
var doc string

type spec struct{}

func (spec) ReadDoc() string { return doc }

func init() {
	swag.Register(swag.Name, spec{})
}

// Register монтирует Swagger UI на /swagger/*any; описание отдается как /swagger/doc.json.
func Register(r gin.IRouter) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DocExpansion("list"),
		ginSwagger.DefaultModelsExpandDepth(1),
	))
}
