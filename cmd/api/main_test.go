package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlags(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	bindFlags(v, flags)

	require.NoError(t, flags.Parse([]string{"--addr", ":9090", "--log-level", "debug"}))
	assert.Equal(t, ":9090", v.GetString("SERVER_ADDR"))
	assert.Equal(t, "debug", v.GetString("LOG_LEVEL"))
}

func TestRootHasServe(t *testing.T) {
	root := newRootCmd()
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())
	assert.NotNil(t, serve.Flags().Lookup("config"))
	assert.NotNil(t, serve.Flags().Lookup("addr"))
}
