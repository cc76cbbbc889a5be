package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RewardPolicy describes how issued discounts look on the commerce platform.
type RewardPolicy struct {
	CodePrefix         string `mapstructure:"codePrefix"`
	ValidityDays       int    `mapstructure:"validityDays"`
	CollectionHandle   string `mapstructure:"collectionHandle"`
	CustomerTag        string `mapstructure:"customerTag"`
	MetafieldNamespace string `mapstructure:"metafieldNamespace"`
}

func DefaultRewardPolicy() RewardPolicy {
	return RewardPolicy{
		CodePrefix:         "WHEEL",
		ValidityDays:       30,
		CollectionHandle:   "wheel-rewards",
		CustomerTag:        "wheel-customer",
		MetafieldNamespace: "custom",
	}
}

type RewardPolicyHolder struct {
	current atomic.Value // holds RewardPolicy
}

// StaticRewardPolicy returns a holder that never reloads.
func StaticRewardPolicy(policy RewardPolicy) *RewardPolicyHolder {
	holder := &RewardPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewRewardPolicyHolder() (*RewardPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("reward")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/prizewheel/config")
	v.AddConfigPath("/etc/prizewheel")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRIZEWHEEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRewardPolicy()
	v.SetDefault("reward.codePrefix", defaults.CodePrefix)
	v.SetDefault("reward.validityDays", defaults.ValidityDays)
	v.SetDefault("reward.collectionHandle", defaults.CollectionHandle)
	v.SetDefault("reward.customerTag", defaults.CustomerTag)
	v.SetDefault("reward.metafieldNamespace", defaults.MetafieldNamespace)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var policy RewardPolicy
	if err := v.UnmarshalKey("reward", &policy); err != nil {
		return nil, err
	}
	if err := validateRewardPolicy(policy); err != nil {
		return nil, err
	}

	holder := StaticRewardPolicy(policy)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RewardPolicy
		if err := v.UnmarshalKey("reward", &updated); err != nil {
			zap.L().Warn("reward policy reload failed", zap.Error(err))
			return
		}
		if err := validateRewardPolicy(updated); err != nil {
			zap.L().Warn("invalid reward policy ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("reward policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *RewardPolicyHolder) Get() RewardPolicy {
	if h == nil {
		return DefaultRewardPolicy()
	}
	policy, ok := h.current.Load().(RewardPolicy)
	if !ok {
		return DefaultRewardPolicy()
	}
	return policy
}

func validateRewardPolicy(policy RewardPolicy) error {
	if strings.TrimSpace(policy.CodePrefix) == "" {
		return errors.New("reward.codePrefix cannot be empty")
	}
	if policy.ValidityDays <= 0 {
		return errors.New("reward.validityDays must be positive")
	}
	if strings.TrimSpace(policy.CollectionHandle) == "" {
		return errors.New("reward.collectionHandle cannot be empty")
	}
	return nil
}
