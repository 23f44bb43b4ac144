package database

import (
	"gorm.io/gorm"
)

// Tables: configurators, configurator_steps, configurator_step_links,
// api_descriptors, configurations, configuration_lines, settings
func init() {
	RegisterMigration(Migration{
		ID:   "20250101_initial_schema",
		Name: "Create configurator, configuration and integration tables",

		Up: func(db *gorm.DB) error {
			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS public.configurators (
					id            BIGSERIAL PRIMARY KEY,
					name          TEXT NOT NULL UNIQUE,
					duplicate_id  BIGINT NOT NULL DEFAULT 0,
					properties    JSONB,
					created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS public.configurator_steps (
					id               BIGSERIAL PRIMARY KEY,
					configurator_id  BIGINT NOT NULL REFERENCES public.configurators(id) ON DELETE CASCADE,
					kind             TEXT NOT NULL,
					name             TEXT NOT NULL,
					variable         TEXT NOT NULL DEFAULT '',
					template         TEXT NOT NULL DEFAULT '',
					duplicate_id     BIGINT NOT NULL DEFAULT 0,
					properties       JSONB
				);
				CREATE INDEX IF NOT EXISTS idx_configurator_steps_configurator
					ON public.configurator_steps(configurator_id);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS public.configurator_step_links (
					id               BIGSERIAL PRIMARY KEY,
					configurator_id  BIGINT NOT NULL REFERENCES public.configurators(id) ON DELETE CASCADE,
					parent_id        BIGINT NOT NULL DEFAULT 0,
					step_id          BIGINT NOT NULL,
					kind             TEXT NOT NULL,
					ordering         INT NOT NULL DEFAULT 1
				);
				CREATE INDEX IF NOT EXISTS idx_configurator_step_links_configurator
					ON public.configurator_step_links(configurator_id);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS public.api_descriptors (
					id               BIGSERIAL PRIMARY KEY,
					configurator_id  BIGINT NOT NULL REFERENCES public.configurators(id) ON DELETE CASCADE,
					kind             TEXT NOT NULL,
					name             TEXT NOT NULL,
					endpoint         TEXT NOT NULL DEFAULT '',
					method           TEXT NOT NULL DEFAULT 'POST',
					body_template    TEXT NOT NULL DEFAULT '',
					auth_type        TEXT NOT NULL DEFAULT '',
					auth_value       TEXT NOT NULL DEFAULT '',
					lookup_query     TEXT NOT NULL DEFAULT '',
					settings         JSONB
				);
				CREATE INDEX IF NOT EXISTS idx_api_descriptors_configurator_kind
					ON public.api_descriptors(configurator_id, kind);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS public.configurations (
					id                  BIGSERIAL PRIMARY KEY,
					uuid                UUID NOT NULL,
					configurator_id     BIGINT NOT NULL,
					parent_id           BIGINT NOT NULL DEFAULT 0,
					quantity            INT NOT NULL DEFAULT 1,
					purchase_price      NUMERIC(12,4) NOT NULL DEFAULT 0,
					customer_price      NUMERIC(12,4) NOT NULL DEFAULT 0,
					from_price          NUMERIC(12,4) NOT NULL DEFAULT 0,
					delivery_time       TEXT NOT NULL DEFAULT '',
					delivery_time_extra TEXT NOT NULL DEFAULT '',
					image               TEXT NOT NULL DEFAULT '',
					extra               JSONB,
					audit_trail         JSONB,
					created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_configurations_configurator
					ON public.configurations(configurator_id);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS public.configuration_lines (
					id                BIGSERIAL PRIMARY KEY,
					configuration_id  BIGINT NOT NULL REFERENCES public.configurations(id) ON DELETE CASCADE,
					item_id           TEXT NOT NULL DEFAULT '',
					name              TEXT NOT NULL DEFAULT '',
					value_name        TEXT NOT NULL DEFAULT '',
					value             TEXT NOT NULL DEFAULT '',
					main_step         TEXT NOT NULL DEFAULT '',
					step              TEXT NOT NULL DEFAULT '',
					sub_step          TEXT NOT NULL DEFAULT '',
					extra             JSONB,
					created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_configuration_lines_configuration
					ON public.configuration_lines(configuration_id);
			`).Error; err != nil {
				return err
			}

			return db.Exec(`
				CREATE TABLE IF NOT EXISTS public.settings (
					key    TEXT PRIMARY KEY,
					value  TEXT NOT NULL DEFAULT ''
				);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`
				DROP TABLE IF EXISTS public.settings;
				DROP TABLE IF EXISTS public.configuration_lines;
				DROP TABLE IF EXISTS public.configurations;
				DROP TABLE IF EXISTS public.api_descriptors;
				DROP TABLE IF EXISTS public.configurator_step_links;
				DROP TABLE IF EXISTS public.configurator_steps;
				DROP TABLE IF EXISTS public.configurators;
			`).Error
		},
	})
}
