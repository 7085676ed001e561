package extract

import (
	"os"
	"strings"
)

const (
	DefaultClientIDVar     = "PDF_SERVICES_CLIENT_ID"
	DefaultClientSecretVar = "PDF_SERVICES_CLIENT_SECRET"
)

// Credentials identify the caller to the PDF Services API.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Resolver reads the service credentials from the environment each time
// Resolve is called.
type Resolver struct {
	ClientIDVar     string
	ClientSecretVar string
	// Lookup defaults to os.LookupEnv.
	Lookup func(key string) (string, bool)
}

// Resolve returns a configuration error naming every missing variable.
func (r Resolver) Resolve() (Credentials, error) {
	lookup := r.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	idVar, secretVar := r.ClientIDVar, r.ClientSecretVar
	if idVar == "" {
		idVar = DefaultClientIDVar
	}
	if secretVar == "" {
		secretVar = DefaultClientSecretVar
	}

	var missing []string
	get := func(key string) string {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}
	creds := Credentials{ClientID: get(idVar), ClientSecret: get(secretVar)}
	if len(missing) > 0 {
		return Credentials{}, Errorf(KindConfiguration, "resolve credentials", "missing environment variable(s): %s", strings.Join(missing, ", "))
	}
	return creds, nil
}
