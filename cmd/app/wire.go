//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/outfit-recommender/internal/bootstrap"
	"github.com/yanqian/outfit-recommender/internal/domain/auth"
	"github.com/yanqian/outfit-recommender/internal/domain/recommend"
	"github.com/yanqian/outfit-recommender/internal/domain/replenish"
	"github.com/yanqian/outfit-recommender/internal/domain/weather"
	"github.com/yanqian/outfit-recommender/internal/infra/config"
	httpiface "github.com/yanqian/outfit-recommender/internal/interface/http"
	"github.com/yanqian/outfit-recommender/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		provideRecommendConfig,
		provideWeatherConfig,
		provideReplenishConfig,
		providePostgresPool,
		provideOutfitStore,
		provideWardrobeRepository,
		provideWeatherProvider,
		provideImageGenerator,
		provideUploader,
		provideJobQueue,
		provideReplenishService,
		auth.NewService,
		weather.NewResolver,
		recommend.NewService,
		wire.Bind(new(recommend.WeatherResolver), new(*weather.Resolver)),
		wire.Bind(new(recommend.Replenisher), new(*replenish.Service)),
		wire.Bind(new(httpiface.OutfitGenerator), new(*replenish.Service)),
		wire.Bind(new(httpiface.WeatherReporter), new(*weather.Resolver)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
