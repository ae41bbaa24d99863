package sqlinline

const QSelectIntegrationToken = `--sql a60bb5fa-55b9-4567-a040-cd2c5ce88ef6
select token from integration_tokens where provider = $1;
`

const QUpsertIntegrationToken = `--sql 74b9bdc2-778f-47b3-8039-e2507989d55a
insert into integration_tokens (provider, token, properties)
values ($1, $2, $3)
on conflict (provider) do update set token = excluded.token, properties = excluded.properties, updated_at = now();
`
