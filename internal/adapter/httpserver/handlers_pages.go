package httpserver

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/yggdrasil/web"
)

const (
	contentTypeHTML       = "text/html; charset=utf-8"
	contentTypeJavaScript = "application/javascript;charset=utf-8"
	contentTypeCSS        = "text/css; charset=utf-8"
)

var staticFiles = mustSub(web.StaticFiles, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

func (s *Server) registerPageRoutes() {
	s.echo.GET("/", servePage("index.html", contentTypeHTML))
	s.echo.GET("/heimdall.html", servePage("heimdall.html", contentTypeHTML))
	s.echo.GET("/heimdall.mjs", servePage("heimdall.mjs", contentTypeJavaScript))
	s.echo.GET("/earendel.html", servePage("earendel.html", contentTypeHTML))
	s.echo.GET("/earendel.mjs", servePage("earendel.mjs", contentTypeJavaScript))
	s.echo.GET("/static/style.css", servePage("style.css", contentTypeCSS))
}

func servePage(name, contentType string) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := fs.ReadFile(staticFiles, name)
		if err != nil {
			return fmt.Errorf("failed to read embedded %s: %w", name, err)
		}
		if err := c.Blob(http.StatusOK, contentType, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		return nil
	}
}
