package queries

// Spec is one named analytical query. The catalog is fixed: queries are
// compile-time SQL with no parameters, executed in order.
type Spec struct {
	Name        string
	Description string
	SQL         string
}

// Catalog returns the analytical query battery in execution order.
func Catalog() []Spec {
	return []Spec{
		{
			Name:        "recent_massive_planets",
			Description: "Planets discovered after 2015 with mass > 1 Earth mass (stage 2c only)",
			SQL: `
				SELECT
				    p.pl_name, p.pl_masse, p.pl_rade, p.density,
				    s.hostname, d.disc_year, d.discoverymethod,
				    CASE
				        WHEN p.density > 0.8 AND p.density < 1.2 THEN 'Rocky'
				        WHEN p.density < 0.5 THEN 'Gas Giant'
				        ELSE 'Other'
				    END AS planet_type
				FROM planets p
				JOIN stars s ON p.star_id = s.star_id
				JOIN discoveries d ON p.planet_id = d.planet_id
				WHERE d.disc_year > 2015
				  AND p.pl_masse > 1.0
				  AND p.pl_rade < 10.0
				  AND p.density IS NOT NULL
				  AND p.in_stage2c = TRUE
				ORDER BY d.disc_year DESC, p.pl_masse DESC`,
		},
		{
			Name:        "most_massive_by_method",
			Description: "Most massive planet for each discovery method (stage 2 only)",
			SQL: `
				SELECT d.discoverymethod, p.pl_name, p.pl_masse AS max_mass, s.hostname, d.disc_year
				FROM planets p
				JOIN stars s ON p.star_id = s.star_id
				JOIN discoveries d ON p.planet_id = d.planet_id
				WHERE p.pl_masse = (
				    SELECT MAX(p2.pl_masse)
				    FROM planets p2
				    JOIN discoveries d2 ON p2.planet_id = d2.planet_id
				    WHERE d2.discoverymethod = d.discoverymethod
				      AND p2.in_stage2 = TRUE
				)
				AND p.in_stage2 = TRUE
				ORDER BY p.pl_masse DESC`,
		},
		{
			Name:        "earth_like_by_method",
			Description: "Earth-like planets (0.8-1.2 Earth radii/mass) by method (stage 2c)",
			SQL: `
				WITH earth_like AS (
				    SELECT p.planet_id, p.pl_name, d.discoverymethod
				    FROM planets p
				    JOIN discoveries d ON p.planet_id = d.planet_id
				    WHERE p.pl_rade BETWEEN 0.8 AND 1.2
				      AND p.pl_masse BETWEEN 0.8 AND 1.2
				      AND p.in_stage2c = TRUE
				)
				SELECT discoverymethod, COUNT(*) AS count, string_agg(pl_name, ', ') AS planets
				FROM earth_like
				GROUP BY discoverymethod
				ORDER BY count DESC`,
		},
		{
			Name:        "planets_by_method",
			Description: "Count of planets by discovery method (all stages)",
			SQL: `
				SELECT d.discoverymethod, COUNT(*) AS count,
				       ROUND(AVG(p.pl_masse)::numeric, 2) AS avg_mass
				FROM discoveries d
				JOIN planets p ON d.planet_id = p.planet_id
				GROUP BY d.discoverymethod
				ORDER BY count DESC`,
		},
		{
			Name:        "method_share",
			Description: "Percentage share of discoveries per method (all stages)",
			SQL: `
				WITH totals AS (
				    SELECT COUNT(*) AS total FROM discoveries
				)
				SELECT
				    d.discoverymethod,
				    COUNT(*) AS count,
				    ROUND(100.0 * COUNT(*) / t.total, 2) AS pct_of_total
				FROM discoveries d
				CROSS JOIN totals t
				GROUP BY d.discoverymethod, t.total
				ORDER BY count DESC`,
		},
		{
			Name:        "discoveries_by_year",
			Description: "Number of planets discovered per year (all stages)",
			SQL: `
				SELECT d.disc_year, COUNT(*) AS count
				FROM discoveries d
				GROUP BY d.disc_year
				ORDER BY d.disc_year ASC`,
		},
		{
			Name:        "stage_summary",
			Description: "Comparison of planet counts across cleaning stages",
			SQL: `
				SELECT
				    COUNT(*) AS total_planets,
				    COUNT(CASE WHEN in_stage1 THEN 1 END) AS stage1_count,
				    COUNT(CASE WHEN in_stage2 THEN 1 END) AS stage2_complete_data,
				    COUNT(CASE WHEN in_stage2c THEN 1 END) AS stage2c_high_quality
				FROM planets`,
		},
		{
			Name:        "multi_planet_systems",
			Description: "Star systems with more than 2 confirmed planets (stage 2c)",
			SQL: `
				SELECT
				    s.hostname,
				    COUNT(p.planet_id) AS planet_count,
				    ROUND(AVG(p.pl_orbper)::numeric, 2) AS avg_orbital_period,
				    ROUND(AVG(s.sy_dist)::numeric, 2) AS distance_parsecs
				FROM stars s
				JOIN planets p ON s.star_id = p.star_id
				WHERE p.in_stage2c = TRUE
				GROUP BY s.star_id, s.hostname
				HAVING COUNT(p.planet_id) > 2
				ORDER BY planet_count DESC`,
		},
		{
			Name:        "planet_classification",
			Description: "Classify planets by mass and radius (stage 2c)",
			SQL: `
				SELECT
				    p.pl_name, p.pl_masse, p.pl_rade,
				    CASE
				        WHEN p.pl_masse < 2.0 AND p.pl_rade < 1.25 THEN 'Rocky'
				        WHEN p.pl_masse < 10.0 AND p.pl_rade < 4.0 THEN 'Neptune-like'
				        WHEN p.pl_masse >= 10.0 AND p.pl_rade > 8.0 THEN 'Gas Giant'
				        ELSE 'Other/Unknown'
				    END AS classification
				FROM planets p
				WHERE p.in_stage2c = TRUE
				ORDER BY p.pl_masse DESC`,
		},
		{
			Name:        "nearest_confirmed_planets",
			Description: "The 5 nearest confirmed planets to Earth (stage 1c)",
			SQL: `
				SELECT p.pl_name, s.hostname, s.sy_dist, p.pl_masse
				FROM planets p
				JOIN stars s ON p.star_id = s.star_id
				WHERE s.sy_dist IS NOT NULL
				  AND p.in_stage1c = TRUE
				ORDER BY s.sy_dist ASC
				LIMIT 5`,
		},
		{
			Name:        "mass_rank_in_system",
			Description: "Planets ranked by mass within their star system",
			SQL: `
				SELECT
				    s.hostname, p.pl_name, p.pl_masse,
				    RANK() OVER (PARTITION BY s.star_id ORDER BY p.pl_masse DESC NULLS LAST) AS mass_rank
				FROM planets p
				JOIN stars s ON p.star_id = s.star_id
				WHERE p.pl_masse IS NOT NULL
				ORDER BY s.hostname, mass_rank`,
		},
	}
}
