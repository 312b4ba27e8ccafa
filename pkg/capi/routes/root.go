package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/redartera/flytekit/pkg/capi/services"
)

func RegisterAPI(api huma.API, svcs *services.Services) {
	RegisterHealth(api)
	if svcs != nil {
		RegisterJobs(api, svcs.Jobs)
	}
}
